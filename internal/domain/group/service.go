package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ErrNameRequired is returned when a group name is empty after trimming.
var ErrNameRequired = errors.New("group name is required")

const maxNameLength = 100

// Detail bundles everything the group page needs besides expenses
type Detail struct {
	Group
	Members []Member
	Spend   []MemberStat
}

// Service contains the business logic for groups
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new group service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListForUser returns the groups the user belongs to, with totals.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Stats, error) {
	return s.repo.ListForUser(ctx, userID)
}

// GetForMember returns a group only if the user is a member of it.
func (s *Service) GetForMember(ctx context.Context, userID, groupID uuid.UUID) (*Group, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// GetDetail loads a group with its members and per-member spending.
func (s *Service) GetDetail(ctx context.Context, userID, groupID uuid.UUID) (*Detail, error) {
	g, err := s.GetForMember(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	spend, err := s.repo.MemberStats(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &Detail{Group: *g, Members: members, Spend: spend}, nil
}

// FindByNameForMember resolves a group by name among the user's groups.
func (s *Service) FindByNameForMember(ctx context.Context, userID uuid.UUID, name string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	return s.repo.FindByNameForMember(ctx, userID, name)
}

// Create makes a new group. The creator always becomes a member; the
// listed usernames are added on top. Unknown usernames reject the whole
// request with an UnknownUsernamesError naming them.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name, description string, memberUsernames []string) (*Group, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.resolveMembers(ctx, memberUsernames)
	if err != nil {
		return nil, err
	}

	g, err := s.repo.Create(ctx, userID, name, strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}

	if err := s.repo.AddMembers(ctx, g.ID, append(memberIDs, userID)); err != nil {
		return nil, err
	}
	g.MemberCount = int64(len(memberIDs)) + 1

	s.logger.Info("group created", "group_id", g.ID, "user_id", userID, "members", g.MemberCount)
	return g, nil
}

// Update edits a group. Only the creator may edit; the membership is
// replaced with the creator plus the listed usernames.
func (s *Service) Update(ctx context.Context, userID, groupID uuid.UUID, name, description string, memberUsernames []string) (*Group, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.CreatedBy != userID {
		return nil, ErrNotCreator
	}

	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.resolveMembers(ctx, memberUsernames)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, groupID, name, strings.TrimSpace(description)); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceMembers(ctx, groupID, append(memberIDs, g.CreatedBy)); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, groupID)
}

// Delete removes a group and, through the schema, its expenses. Only
// the creator may delete.
func (s *Service) Delete(ctx context.Context, userID, groupID uuid.UUID) error {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g.CreatedBy != userID {
		return ErrNotCreator
	}

	if err := s.repo.Delete(ctx, groupID); err != nil {
		return err
	}

	s.logger.Info("group deleted", "group_id", groupID, "user_id", userID)
	return nil
}

// resolveMembers turns usernames into user IDs, rejecting the request
// when any of them match no account.
func (s *Service) resolveMembers(ctx context.Context, usernames []string) ([]uuid.UUID, error) {
	cleaned := dedupeUsernames(usernames)
	if len(cleaned) == 0 {
		return nil, nil
	}

	resolved, err := s.repo.ResolveUsernames(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve members: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(cleaned))
	var unknown []string
	for _, name := range cleaned {
		id, ok := resolved[strings.ToLower(name)]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		ids = append(ids, id)
	}
	if len(unknown) > 0 {
		return nil, &UnknownUsernamesError{Usernames: unknown}
	}
	return ids, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name, nil
}

// dedupeUsernames trims, drops empties, and removes case-insensitive
// duplicates while keeping the first spelling seen.
func dedupeUsernames(usernames []string) []string {
	seen := make(map[string]struct{}, len(usernames))
	out := make([]string, 0, len(usernames))
	for _, name := range usernames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
