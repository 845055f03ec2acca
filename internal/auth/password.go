package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/utafrali/ReminderGo/pkg/errors"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher turns plaintext passwords into self-describing digests and
// checks candidates against them.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes passwords with bcrypt. The cost and salt are encoded
// in every digest, so changing the cost does not invalidate stored hashes.
type BcryptHasher struct {
	cost int
}

var _ PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher returns a hasher using cost, clamped to bcrypt's bounds.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)}
}

// Cost returns the work factor used for new digests.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a salted digest of plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never
// match.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
