package normalize

import "testing"

func TestEmail(t *testing.T) {
	in := "  John.DOE@Example.COM  "
	want := "john.doe@example.com"
	got := Email(in)
	if got != want {
		t.Fatalf("Normalize.Email(%q) = %q, want %q", in, got, want)
	}
}

func TestHasDomain(t *testing.T) {
	cases := []struct {
		email, domain string
		want          bool
	}{
		{"a@uni.edu", "uni.edu", true},
		{"a@uni.edu", "@uni.edu", true},
		{"A@UNI.EDU ", "uni.edu", true},
		{"a@evil-uni.edu", "uni.edu", false},
		{"a@gmail.com", "uni.edu", false},
		{"a@gmail.com", "", true},
	}
	for _, c := range cases {
		if got := HasDomain(c.email, c.domain); got != c.want {
			t.Fatalf("HasDomain(%q, %q) = %v, want %v", c.email, c.domain, got, c.want)
		}
	}
}
