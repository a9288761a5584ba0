// Package group manages shared expense groups and their memberships.
package group

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a group does not exist or the user
	// is not a member. Non-members cannot tell the two apart.
	ErrNotFound = errors.New("group not found")

	// ErrNotCreator is returned when someone other than the creator
	// attempts to edit or delete a group.
	ErrNotCreator = errors.New("only the group creator can do this")
)

// UnknownUsernamesError reports member usernames that match no user.
type UnknownUsernamesError struct {
	Usernames []string
}

func (e *UnknownUsernamesError) Error() string {
	return "unknown usernames: " + strings.Join(e.Usernames, ", ")
}

// Group represents a shared expense group
type Group struct {
	ID          uuid.UUID
	CreatedBy   uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	MemberCount int64
}

// Member is a group member with display fields
type Member struct {
	UserID      uuid.UUID
	Username    string
	DisplayName string
}

// Stats pairs a group with its expense totals for the list page
type Stats struct {
	Group
	ExpenseCount int64
	TotalCents   int64
}

// MemberStat carries per-member spending totals for the detail page
type MemberStat struct {
	Member
	ExpenseCount int64
	TotalCents   int64
}

// Repository defines the persistence operations for groups
type Repository interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Stats, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	FindByNameForMember(ctx context.Context, userID uuid.UUID, name string) (*Group, error)
	Create(ctx context.Context, createdBy uuid.UUID, name, description string) (*Group, error)
	Update(ctx context.Context, id uuid.UUID, name, description string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Members(ctx context.Context, groupID uuid.UUID) ([]Member, error)
	MemberStats(ctx context.Context, groupID uuid.UUID) ([]MemberStat, error)
	AddMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error
	ReplaceMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error
	ResolveUsernames(ctx context.Context, usernames []string) (map[string]uuid.UUID, error)
}
