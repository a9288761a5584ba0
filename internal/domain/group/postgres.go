package group

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repository
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresGroupRepository implements Repository backed by PostgreSQL
type PostgresGroupRepository struct {
	db DB
}

// NewPostgresGroupRepository creates a new PostgreSQL group repository
func NewPostgresGroupRepository(db DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Stats, error) {
	query := `
		SELECT g.id, g.created_by, g.name, g.description, g.created_at,
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count,
		       COUNT(e.id) AS expense_count,
		       COALESCE(SUM(e.amount_cents), 0) AS total_cents
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		LEFT JOIN expenses e ON e.group_id = g.id
		WHERE gm.user_id = $1
		GROUP BY g.id
		ORDER BY g.name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.ID, &s.CreatedBy, &s.Name, &s.Description, &s.CreatedAt,
			&s.MemberCount, &s.ExpenseCount, &s.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, s)
	}
	return groups, rows.Err()
}

func (r *PostgresGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	query := `
		SELECT g.id, g.created_by, g.name, g.description, g.created_at,
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count
		FROM groups g
		WHERE g.id = $1`

	var g Group
	err := r.db.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.CreatedBy, &g.Name, &g.Description, &g.CreatedAt, &g.MemberCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

func (r *PostgresGroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

// FindByNameForMember resolves a group by case-insensitive name among the
// groups the user belongs to. A group the user is not a member of is
// indistinguishable from a missing one.
func (r *PostgresGroupRepository) FindByNameForMember(ctx context.Context, userID uuid.UUID, name string) (*Group, error) {
	query := `
		SELECT g.id, g.created_by, g.name, g.description, g.created_at,
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1 AND lower(g.name) = lower($2)`

	var g Group
	err := r.db.QueryRow(ctx, query, userID, name).Scan(
		&g.ID, &g.CreatedBy, &g.Name, &g.Description, &g.CreatedAt, &g.MemberCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find group by name: %w", err)
	}
	return &g, nil
}

func (r *PostgresGroupRepository) Create(ctx context.Context, createdBy uuid.UUID, name, description string) (*Group, error) {
	query := `
		INSERT INTO groups (created_by, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_by, name, description, created_at`

	var g Group
	err := r.db.QueryRow(ctx, query, createdBy, name, description).Scan(
		&g.ID, &g.CreatedBy, &g.Name, &g.Description, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &g, nil
}

func (r *PostgresGroupRepository) Update(ctx context.Context, id uuid.UUID, name, description string) error {
	query := `UPDATE groups SET name = $2, description = $3 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, name, description)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM groups WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresGroupRepository) Members(ctx context.Context, groupID uuid.UUID) ([]Member, error) {
	query := `
		SELECT u.id, u.username, u.display_name
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY u.username`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *PostgresGroupRepository) MemberStats(ctx context.Context, groupID uuid.UUID) ([]MemberStat, error) {
	query := `
		SELECT u.id, u.username, u.display_name,
		       COUNT(e.id) AS expense_count,
		       COALESCE(SUM(e.amount_cents), 0) AS total_cents
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		LEFT JOIN expenses e ON e.group_id = gm.group_id AND e.user_id = u.id
		WHERE gm.group_id = $1
		GROUP BY u.id, u.username, u.display_name
		ORDER BY total_cents DESC, u.username`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load member stats: %w", err)
	}
	defer rows.Close()

	var stats []MemberStat
	for rows.Next() {
		var s MemberStat
		if err := rows.Scan(&s.UserID, &s.Username, &s.DisplayName, &s.ExpenseCount, &s.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan member stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *PostgresGroupRepository) AddMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO group_members (group_id, user_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, groupID, userIDs); err != nil {
		return fmt.Errorf("failed to add members: %w", err)
	}
	return nil
}

// ReplaceMembers swaps the full membership of a group in one transaction.
func (r *PostgresGroupRepository) ReplaceMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}

	if len(userIDs) > 0 {
		query := `
			INSERT INTO group_members (group_id, user_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, query, groupID, userIDs); err != nil {
			return fmt.Errorf("failed to add members: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ResolveUsernames maps usernames (case-insensitive) to user IDs. Names
// without a matching user are simply absent from the result; keys are
// lowercased.
func (r *PostgresGroupRepository) ResolveUsernames(ctx context.Context, usernames []string) (map[string]uuid.UUID, error) {
	resolved := make(map[string]uuid.UUID, len(usernames))
	if len(usernames) == 0 {
		return resolved, nil
	}

	lowered := make([]string, 0, len(usernames))
	for _, name := range usernames {
		lowered = append(lowered, strings.ToLower(name))
	}

	query := `SELECT lower(username), id FROM users WHERE lower(username) = ANY($1)`

	rows, err := r.db.Query(ctx, query, lowered)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var id uuid.UUID
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		resolved[name] = id
	}
	return resolved, rows.Err()
}
