// Package repository provides database operations for users, sessions
// and one-time tokens.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents an account holder
type User struct {
	ID              uuid.UUID
	Email           string
	Username        string
	HashedPassword  string
	DisplayName     string
	IsActive        bool
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserSession represents a login session. Only the sha256 hash of the
// session token is stored.
type UserSession struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	UserAgent string
	ClientIP  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserToken is a single-use token for email verification or password reset
type UserToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	TokenType string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuthRepository defines the interface for auth persistence operations
type AuthRepository interface {
	// User operations
	CreateUser(ctx context.Context, email, username, hashedPassword, displayName string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	VerifyEmail(ctx context.Context, userID uuid.UUID) error

	// Session operations
	CreateUserSession(ctx context.Context, userID uuid.UUID, tokenHash, userAgent, clientIP string, expiresAt time.Time) (*UserSession, error)
	GetUserSessionByToken(ctx context.Context, tokenHash string) (*UserSession, error)
	DeleteUserSession(ctx context.Context, tokenHash string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// One-time token operations
	CreateUserToken(ctx context.Context, userID uuid.UUID, tokenHash, tokenType string, expiresAt time.Time) error
	GetUserTokenByHash(ctx context.Context, tokenHash, tokenType string) (*UserToken, error)
	DeleteUserToken(ctx context.Context, tokenHash string) error
	DeleteExpiredTokens(ctx context.Context) (int64, error)

	// OAuth operations
	GetUserByOAuthIdentity(ctx context.Context, provider, providerUserID string) (*User, error)
	CreateOrUpdateOAuthIdentity(ctx context.Context, provider, providerUserID string, userID uuid.UUID, accessToken, refreshToken *string) error
}
