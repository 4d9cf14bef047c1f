package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	pwd := "s3cr3t-password"
	hash, err := HashPassword(pwd)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == pwd {
		t.Fatal("hash must differ from plaintext")
	}

	if err := CheckPassword(hash, pwd); err != nil {
		t.Fatalf("CheckPassword failed when password should match: %v", err)
	}

	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("CheckPassword succeeded when it should have failed")
	}
}

func TestHasher_Algorithms(t *testing.T) {
	ctx := context.Background()
	for _, algo := range []string{AlgoBcrypt, AlgoArgon2id} {
		h := NewHasher(algo, 2)

		hash, err := h.Hash(ctx, "hunter22")
		if err != nil {
			t.Fatalf("%s: Hash failed: %v", algo, err)
		}
		if algo == AlgoArgon2id && !strings.HasPrefix(hash, "$argon2id$") {
			t.Fatalf("expected argon2id encoded hash, got %q", hash)
		}

		again, _ := h.Hash(ctx, "hunter22")
		if again == hash {
			t.Fatalf("%s: two hashes of the same password must differ (salt)", algo)
		}

		if err := h.Compare(ctx, hash, "hunter22"); err != nil {
			t.Fatalf("%s: Compare failed: %v", algo, err)
		}
		if err := h.Compare(ctx, hash, "hunter23"); !errors.Is(err, ErrPasswordMismatch) {
			t.Fatalf("%s: expected ErrPasswordMismatch, got %v", algo, err)
		}
	}
}

func TestHasher_VerifiesEitherFormat(t *testing.T) {
	ctx := context.Background()
	legacy, err := NewHasher(AlgoBcrypt, 1).Hash(ctx, "pw123456")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// switching the configured algorithm must not lock out existing users
	if err := NewHasher(AlgoArgon2id, 1).Compare(ctx, legacy, "pw123456"); err != nil {
		t.Fatalf("Compare of bcrypt hash with argon2id hasher failed: %v", err)
	}
}

func TestHasher_CompareDummy(t *testing.T) {
	h := NewHasher(AlgoBcrypt, 1)
	if err := h.CompareDummy(context.Background(), "bookhub-dummy-password"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHasher_CompareDummyRetriesAfterHashFailure(t *testing.T) {
	h := NewHasher(AlgoBcrypt, 1)
	h.dummyPassword = strings.Repeat("x", 80) // over bcrypt's 72-byte limit

	err := h.CompareDummy(context.Background(), "whatever")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected hashing error, got %v", err)
	}
	if h.dummy != "" {
		t.Fatal("a failed dummy hash must not be cached")
	}

	h.dummyPassword = "bookhub-dummy-password"
	if err := h.CompareDummy(context.Background(), "whatever"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch after recovery, got %v", err)
	}
}

func TestHasher_HonoursCancellation(t *testing.T) {
	h := NewHasher(AlgoBcrypt, 1)

	// occupy the only slot
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.Hash(ctx, "pw"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHasher_ConcurrentUse(t *testing.T) {
	h := NewHasher(AlgoBcrypt, 2)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Hash(context.Background(), "pw-concurrent"); err != nil {
				t.Errorf("Hash failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
