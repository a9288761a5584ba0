package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock
// implements it for tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const categoryColumns = `id, user_id, name, icon, created_at`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new PostgreSQL category repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return c, nil
}

// List returns the user's categories ordered by name
func (r *PostgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListWithStats returns the user's categories with expense count and total
func (r *PostgresRepository) ListWithStats(ctx context.Context, userID uuid.UUID) ([]Stats, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.icon, c.created_at,
		       COUNT(e.id), COALESCE(SUM(e.amount_cents), 0)
		FROM categories c
		LEFT JOIN expenses e ON e.category_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category stats: %w", err)
	}
	defer rows.Close()

	var stats []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Icon, &s.CreatedAt, &s.ExpenseCount, &s.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetByID retrieves a category owned by the user
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`
	return scanCategory(r.db.QueryRow(ctx, query, id, userID))
}

// FindByName retrieves a category by case-insensitive exact name
func (r *PostgresRepository) FindByName(ctx context.Context, userID uuid.UUID, name string) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND lower(name) = lower($2)`
	return scanCategory(r.db.QueryRow(ctx, query, userID, name))
}

// Create inserts a new category. A duplicate name for the same user
// maps to ErrExists.
func (r *PostgresRepository) Create(ctx context.Context, userID uuid.UUID, name, icon string) (*Category, error) {
	query := `
		INSERT INTO categories (user_id, name, icon)
		VALUES ($1, $2, $3)
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRow(ctx, query, userID, name, icon))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// GetOrCreate returns the user's category with the given name, creating
// it when absent. The no-op DO UPDATE makes RETURNING yield the existing
// row, so concurrent calls converge on one row and the stored casing and
// icon win over the caller's.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, name, icon string) (*Category, error) {
	query := `
		INSERT INTO categories (user_id, name, icon)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, lower(name)) DO UPDATE SET name = categories.name
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRow(ctx, query, userID, name, icon))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create category: %w", err)
	}
	return c, nil
}

// Update renames a category or changes its icon
func (r *PostgresRepository) Update(ctx context.Context, userID, id uuid.UUID, name, icon string) (*Category, error) {
	query := `
		UPDATE categories SET name = $3, icon = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRow(ctx, query, id, userID, name, icon))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrExists
		}
		return nil, err
	}
	return c, nil
}

// Delete removes a category. Expenses keep their rows; the FK sets
// their category to null.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
