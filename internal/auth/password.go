package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"
)

var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword returns a bcrypt hash for the provided plaintext.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Hasher hashes and verifies passwords with a bounded number of concurrent
// operations. Both algorithms are CPU heavy; without the bound a burst of
// signups can pin every core and stall unrelated requests.
type Hasher struct {
	algo string
	sem  *semaphore.Weighted

	// dummy is computed on first use and kept only once hashing succeeds
	dummyMu       sync.Mutex
	dummy         string
	dummyPassword string
}

// NewHasher returns a Hasher producing algo hashes ("bcrypt" or "argon2id").
// concurrency caps simultaneous hash computations.
func NewHasher(algo string, concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if algo != AlgoArgon2id {
		algo = AlgoBcrypt
	}
	return &Hasher{
		algo:          algo,
		sem:           semaphore.NewWeighted(int64(concurrency)),
		dummyPassword: "bookhub-dummy-password",
	}
}

// Hash returns a salted one-way hash of password. It blocks until a hashing
// slot is free or ctx is done.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)
	return h.hash(password)
}

func (h *Hasher) hash(password string) (string, error) {
	if h.algo == AlgoArgon2id {
		return argon2id.CreateHash(password, argon2id.DefaultParams)
	}
	return HashPassword(password)
}

// Compare checks password against hash, which may have been produced by
// either algorithm. A wrong password returns ErrPasswordMismatch.
func (h *Hasher) Compare(ctx context.Context, hash, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	if strings.HasPrefix(hash, "$argon2id$") {
		ok, err := argon2id.ComparePasswordAndHash(password, hash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPasswordMismatch
		}
		return nil
	}

	err := CheckPassword(hash, password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// CompareDummy spends the same work as Compare against a throwaway hash. It
// is used for unknown accounts so login timing does not reveal which emails
// are registered. The result is always ErrPasswordMismatch.
func (h *Hasher) CompareDummy(ctx context.Context, password string) error {
	dummy, err := h.dummyHash()
	if err != nil {
		return fmt.Errorf("dummy hash: %w", err)
	}
	if err := h.Compare(ctx, dummy, password); err != nil && !errors.Is(err, ErrPasswordMismatch) {
		return err
	}
	return ErrPasswordMismatch
}

func (h *Hasher) dummyHash() (string, error) {
	h.dummyMu.Lock()
	defer h.dummyMu.Unlock()
	if h.dummy != "" {
		return h.dummy, nil
	}
	d, err := h.hash(h.dummyPassword)
	if err != nil {
		return "", err
	}
	h.dummy = d
	return d, nil
}
