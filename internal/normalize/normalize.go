// Package normalize canonicalises user supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email lower-cases and trims an email address.
func Email(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Text trims surrounding whitespace from free-form input.
func Text(s string) string { return strings.TrimSpace(s) }

// HasDomain reports whether email ends with the given domain suffix. A leading
// "@" on the suffix is optional. An empty suffix matches everything.
func HasDomain(email, domain string) bool {
	domain = Email(domain)
	if domain == "" {
		return true
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	return strings.HasSuffix(Email(email), domain)
}
