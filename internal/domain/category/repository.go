// Package category manages per-user expense categories.
package category

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a category does not exist or belongs
	// to another user.
	ErrNotFound = errors.New("category not found")

	// ErrExists is returned when a user already has a category with the
	// same name (case-insensitive).
	ErrExists = errors.New("category already exists")
)

// Category represents a user-owned expense category
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Icon      string
	CreatedAt time.Time
}

// Stats pairs a category with its expense totals for the list page
type Stats struct {
	Category
	ExpenseCount int64
	TotalCents   int64
}

// Repository defines the persistence operations for categories
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]Category, error)
	ListWithStats(ctx context.Context, userID uuid.UUID) ([]Stats, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Category, error)
	FindByName(ctx context.Context, userID uuid.UUID, name string) (*Category, error)
	Create(ctx context.Context, userID uuid.UUID, name, icon string) (*Category, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID, name, icon string) (*Category, error)
	Update(ctx context.Context, userID, id uuid.UUID, name, icon string) (*Category, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
