// Package auth holds credential hashing, the cookie-backed identity store and
// the middleware that puts the current identity on the request context.
//
// Passwords are stored as bcrypt hashes. The hash string embeds its salt and
// cost, so the User table needs a single column for it:
//
//	$2a$12$<22-char salt><31-char hash>
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by Verify when the plaintext does not match.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// defaultCost is the bcrypt work factor used outside tests.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer input would be silently
// truncated, so Hash rejects it instead.
const maxPasswordBytes = 72

// PasswordService hashes and verifies passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests in other packages, which use
// bcrypt.MinCost to keep hashing fast. Never use a low cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch
// when it does not. A malformed hash is reported as a wrapped error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("auth: comparing password hash: %w", err)
}
