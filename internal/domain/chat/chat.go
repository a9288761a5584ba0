// Package chat turns natural-language input into expense records. A
// submission is sent to the Gemini API together with the caller's
// categories and groups, the JSON reply is validated line item by line
// item, and each valid item becomes a persisted expense. The
// conversation itself is stored per user and trimmed to the most
// recent messages.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message roles as stored in chat_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryLimit is the number of messages kept per user.
const HistoryLimit = 50

var (
	// ErrEmptyMessage is returned when the submitted text is blank.
	ErrEmptyMessage = errors.New("message is required")

	// ErrNotConfigured is returned when the AI backend has no API key.
	ErrNotConfigured = errors.New("AI expense entry is not configured")

	// ErrUnavailable is returned when the AI backend cannot be reached
	// or answers with an error status.
	ErrUnavailable = errors.New("AI service is unavailable, please try again")

	// ErrInvalidResponse is returned when the AI reply is not the
	// expected JSON shape. Nothing is written in that case.
	ErrInvalidResponse = errors.New("could not understand the AI response")

	// ErrNoExpenses is returned when the AI parsed the input but found
	// no expenses in it.
	ErrNoExpenses = errors.New("no expenses found in the input")
)

// Message is one entry of a user's chat history.
type Message struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Role      string
	Body      string
	IsError   bool
	CreatedAt time.Time
}

// Repository defines the persistence operations for chat history.
type Repository interface {
	Insert(ctx context.Context, userID uuid.UUID, role, body string, isError bool) (*Message, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error)
	DeleteAll(ctx context.Context, userID uuid.UUID) error
	TrimUser(ctx context.Context, userID uuid.UUID, keep int) (int64, error)
	TrimAll(ctx context.Context, keep int) (int64, error)
}
