package category

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ErrNameRequired is returned when a category name is empty after trimming.
var ErrNameRequired = errors.New("category name is required")

const maxNameLength = 100

// Service handles category business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new category service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the user's categories ordered by name
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	return s.repo.List(ctx, userID)
}

// ListWithStats returns the user's categories with expense totals
func (s *Service) ListWithStats(ctx context.Context, userID uuid.UUID) ([]Stats, error) {
	return s.repo.ListWithStats(ctx, userID)
}

// Get retrieves a category owned by the user
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// FindByName retrieves a category by case-insensitive exact name
func (s *Service) FindByName(ctx context.Context, userID uuid.UUID, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByName(ctx, userID, name)
}

// Create adds a new category for the user
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name, icon string) (*Category, error) {
	name, icon, err := normalize(name, icon)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, userID, name, icon)
	if err != nil {
		return nil, err
	}

	s.logger.Info("category created", "user_id", userID, "category", c.Name)
	return c, nil
}

// GetOrCreate returns the user's category with the given name, creating
// it when absent. Existing categories keep their stored casing and icon.
func (s *Service) GetOrCreate(ctx context.Context, userID uuid.UUID, name, icon string) (*Category, error) {
	name, icon, err := normalize(name, icon)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, userID, name, icon)
}

// Update renames a category or changes its icon
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, name, icon string) (*Category, error) {
	name, icon, err := normalize(name, icon)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, id, name, icon)
}

// Delete removes a category; its expenses survive without a category
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func normalize(name, icon string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrNameRequired
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}

	icon = strings.TrimSpace(icon)
	if icon == "" {
		icon = DefaultIcon
	}
	return name, icon, nil
}
