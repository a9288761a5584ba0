package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	// ErrPasswordTooShort is returned when a password fails the length check.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)

	// ErrPasswordTooWeak is returned when a password has no letter or no digit.
	ErrPasswordTooWeak = errors.New("password must contain at least one letter and one digit")
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether the plaintext matches the stored hash.
// OAuth-only accounts store an empty hash and never match.
func ComparePassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// ValidatePassword enforces the password policy for new passwords.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrPasswordTooWeak
	}
	return nil
}

// GenerateSessionToken returns a random opaque token for login sessions.
func GenerateSessionToken() (string, error) {
	return generateToken(32)
}

// GenerateVerificationToken returns a random token for email verification links.
func GenerateVerificationToken() (string, error) {
	return generateToken(32)
}

// GeneratePasswordResetToken returns a random token for password reset links.
func GeneratePasswordResetToken() (string, error) {
	return generateToken(32)
}

func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
