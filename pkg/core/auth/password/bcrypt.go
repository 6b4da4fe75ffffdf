// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"context"
	"errors"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	apperrors "my-blog/pkg/common/errors"
)

const (
	// DefaultCost is the bcrypt work factor (10 rounds).
	DefaultCost = bcrypt.DefaultCost
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// Hasher provides password hashing and verification.
type Hasher interface {
	// Hash produces a salted bcrypt hash of the password.
	Hash(ctx context.Context, plaintext string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// BcryptHasher implements Hasher. The number of hashes computed at the same
// time is capped so bursts of logins cannot pin every CPU.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher creates a hasher. concurrency <= 0 means GOMAXPROCS.
func NewBcryptHasher(cost, concurrency int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.In("password").
			Code("CONFIG_INVALID").
			With("cost", cost).
			Wrapf(apperrors.ErrConfiguration, "bcrypt cost out of range")
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", apperrors.NewValidationError("password cannot be empty", nil)
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", apperrors.NewValidationError("password is too long", nil)
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", oops.In("password").Code("AUTH_HASH_FAILED").Wrapf(apperrors.ErrHashing, "%v", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	// bcrypt only reads the first 72 bytes; longer input never matches but
	// still pays for the comparison
	tooLong := len(plaintext) > MaxPasswordBytes

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return !tooLong, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.In("password").Code("AUTH_INVALID_HASH").Wrapf(apperrors.ErrHashing, "%v", err)
	}
}
