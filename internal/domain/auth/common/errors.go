// Package common holds the sentinel errors shared by the auth
// repository and service layers.
package common

import "errors"

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when the email is taken.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUsernameTaken is returned when the username is taken.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned on a failed password check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound is returned when a session token does not
	// resolve to a live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTokenNotFound is returned when a one-time token is unknown
	// or expired.
	ErrTokenNotFound = errors.New("token is invalid or expired")
)
