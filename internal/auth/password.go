// Package auth — password hashing and the password complexity policy.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which is the point: a leaked database of
// bcrypt hashes is expensive to brute-force. It also generates a random
// salt per hash and embeds it in the output, so two users with the same
// password get different hashes and no separate salt column is needed.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/gallery-api/internal/apperror"
)

// defaultCost is the bcrypt work factor. Cost 10 takes roughly 60-100ms
// on current server hardware — negligible on login, brutal for attackers.
const defaultCost = 10

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in
// tests — cost 4 (the bcrypt minimum) makes each hash run in
// microseconds instead of tens of milliseconds.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom
// (usually minimal) cost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext with bcrypt. The output is a
// self-contained string (salt and cost included) — store it directly.
//
// bcrypt silently truncates inputs longer than 72 bytes; we reject them
// explicitly instead so callers aren't surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
// Returns nil on match. bcrypt's compare is constant-time internally, so
// this is safe against timing attacks.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// passwordSymbols is the fixed symbol set the complexity policy accepts.
const passwordSymbols = "!@#$%^&*"

// CheckPasswordPolicy validates a new password against the complexity
// policy: minimum 8 characters with at least one uppercase letter, one
// lowercase letter, one digit, and one symbol from passwordSymbols.
// Returns a validation error naming the failed rule.
func CheckPasswordPolicy(password string) error {
	if len(password) < 8 {
		return apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return apperror.ValidationFailed("password", "password must contain an uppercase letter")
	case !hasLower:
		return apperror.ValidationFailed("password", "password must contain a lowercase letter")
	case !hasDigit:
		return apperror.ValidationFailed("password", "password must contain a digit")
	case !hasSymbol:
		return apperror.ValidationFailed("password", "password must contain one of "+passwordSymbols)
	}
	return nil
}
