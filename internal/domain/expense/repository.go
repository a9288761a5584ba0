// Package expense is the core domain: recording spending, listing and
// filtering it, and aggregating it for the dashboard.
package expense

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an expense does not exist or belongs
	// to someone else.
	ErrNotFound = errors.New("expense not found")

	// ErrDescriptionRequired is returned when a description is empty
	// after trimming.
	ErrDescriptionRequired = errors.New("description is required")
)

// Expense is a single spending record. Category and group are optional;
// the joined names are populated on reads for rendering.
type Expense struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	CategoryID    *uuid.UUID
	GroupID       *uuid.UUID
	Description   string
	AmountCents   int64
	SpentOn       time.Time
	ReceiptFileID *uuid.UUID
	IsAIGenerated bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	CategoryName string
	CategoryIcon string
	GroupName    string
}

// Filter narrows List and the exports. Query is resolved to IDs through
// the search index before the repository sees it; the repository only
// applies IDs. Zero Limit means no limit.
type Filter struct {
	CategoryID *uuid.UUID
	GroupID    *uuid.UUID
	From       *time.Time
	To         *time.Time
	Query      string
	IDs        []uuid.UUID
	Limit      int
	Offset     int
}

// CategoryTotal is one slice of the dashboard category breakdown
type CategoryTotal struct {
	Name         string
	Icon         string
	ExpenseCount int64
	TotalCents   int64
}

// GroupTotal is one slice of the dashboard group breakdown
type GroupTotal struct {
	ID           uuid.UUID
	Name         string
	ExpenseCount int64
	TotalCents   int64
}

// DashboardSummary aggregates a user's spending for the landing page
type DashboardSummary struct {
	TotalCents      int64
	ExpenseCount    int64
	Last30DaysCents int64
	Recent          []Expense
	TopCategories   []CategoryTotal
	TopGroups       []GroupTotal
}

// IndexEntry is the slice of an expense the search index stores
type IndexEntry struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Description string
}

// Repository defines the persistence operations for expenses
type Repository interface {
	Create(ctx context.Context, e *Expense) (*Expense, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Expense, error)
	Update(ctx context.Context, e *Expense) (*Expense, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, f Filter) ([]Expense, error)
	Count(ctx context.Context, userID uuid.UUID, f Filter) (int64, error)
	ListForGroup(ctx context.Context, groupID uuid.UUID) ([]Expense, error)
	DashboardSummary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error)
	IndexEntries(ctx context.Context) ([]IndexEntry, error)
}
