package expense

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
}

const expenseColumns = `e.id, e.user_id, e.category_id, e.group_id, e.description,
	e.amount_cents, e.spent_on, e.receipt_file_id, e.is_ai_generated,
	e.created_at, e.updated_at,
	COALESCE(c.name, '') AS category_name,
	COALESCE(c.icon, '') AS category_icon,
	COALESCE(g.name, '') AS group_name`

const expenseJoins = `FROM expenses e
	LEFT JOIN categories c ON c.id = e.category_id
	LEFT JOIN groups g ON g.id = e.group_id`

// PostgresExpenseRepository implements Repository backed by PostgreSQL
type PostgresExpenseRepository struct {
	db DB
}

// NewPostgresExpenseRepository creates a new PostgreSQL expense repository
func NewPostgresExpenseRepository(db DB) *PostgresExpenseRepository {
	return &PostgresExpenseRepository{db: db}
}

func scanExpense(rows pgx.Rows) (Expense, error) {
	var e Expense
	err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.GroupID, &e.Description,
		&e.AmountCents, &e.SpentOn, &e.ReceiptFileID, &e.IsAIGenerated,
		&e.CreatedAt, &e.UpdatedAt,
		&e.CategoryName, &e.CategoryIcon, &e.GroupName)
	return e, err
}

func (r *PostgresExpenseRepository) Create(ctx context.Context, e *Expense) (*Expense, error) {
	query := `
		INSERT INTO expenses (user_id, category_id, group_id, description, amount_cents, spent_on, receipt_file_id, is_ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		e.UserID, e.CategoryID, e.GroupID, e.Description,
		e.AmountCents, e.SpentOn, e.ReceiptFileID, e.IsAIGenerated,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return e, nil
}

func (r *PostgresExpenseRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Expense, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE e.id = $1 AND e.user_id = $2`, expenseColumns, expenseJoins)

	rows, err := r.db.Query(ctx, query, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get expense: %w", err)
		}
		return nil, ErrNotFound
	}
	e, err := scanExpense(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}
	return &e, nil
}

func (r *PostgresExpenseRepository) Update(ctx context.Context, e *Expense) (*Expense, error) {
	query := `
		UPDATE expenses
		SET category_id = $3, group_id = $4, description = $5, amount_cents = $6,
		    spent_on = $7, receipt_file_id = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		e.ID, e.UserID, e.CategoryID, e.GroupID, e.Description,
		e.AmountCents, e.SpentOn, e.ReceiptFileID,
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

func (r *PostgresExpenseRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// filterClause builds the WHERE clause for List and Count. The first
// placeholder is always the owner.
func filterClause(userID uuid.UUID, f Filter) (string, []any) {
	conds := []string{"e.user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CategoryID != nil {
		add("e.category_id = $%d", *f.CategoryID)
	}
	if f.GroupID != nil {
		add("e.group_id = $%d", *f.GroupID)
	}
	if f.From != nil {
		add("e.spent_on >= $%d", *f.From)
	}
	if f.To != nil {
		add("e.spent_on <= $%d", *f.To)
	}
	if f.IDs != nil {
		add("e.id = ANY($%d)", f.IDs)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresExpenseRepository) List(ctx context.Context, userID uuid.UUID, f Filter) ([]Expense, error) {
	where, args := filterClause(userID, f)

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY e.spent_on DESC, e.created_at DESC`,
		expenseColumns, expenseJoins, where)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func (r *PostgresExpenseRepository) Count(ctx context.Context, userID uuid.UUID, f Filter) (int64, error) {
	where, args := filterClause(userID, f)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM expenses e %s`, where)

	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

func (r *PostgresExpenseRepository) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]Expense, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE e.group_id = $1 ORDER BY e.spent_on DESC, e.created_at DESC`,
		expenseColumns, expenseJoins)

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func (r *PostgresExpenseRepository) DashboardSummary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	var s DashboardSummary

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = $1`,
		userID,
	).Scan(&s.ExpenseCount, &s.TotalCents)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE user_id = $1 AND spent_on >= CURRENT_DATE - INTERVAL '30 days'`,
		userID,
	).Scan(&s.Last30DaysCents)
	if err != nil {
		return nil, fmt.Errorf("failed to load 30-day total: %w", err)
	}

	recentQuery := fmt.Sprintf(`SELECT %s %s WHERE e.user_id = $1 ORDER BY e.created_at DESC LIMIT 10`,
		expenseColumns, expenseJoins)
	rows, err := r.db.Query(ctx, recentQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent expenses: %w", err)
	}
	s.Recent, err = collectExpenses(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	catRows, err := r.db.Query(ctx, `
		SELECT c.name, c.icon, COUNT(e.id), SUM(e.amount_cents) AS total_cents
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		GROUP BY c.id, c.name, c.icon
		ORDER BY total_cents DESC
		LIMIT 5`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category breakdown: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var ct CategoryTotal
		if err := catRows.Scan(&ct.Name, &ct.Icon, &ct.ExpenseCount, &ct.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		s.TopCategories = append(s.TopCategories, ct)
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	// Group totals cover everything spent in the user's groups, not just
	// the user's own rows.
	grpRows, err := r.db.Query(ctx, `
		SELECT g.id, g.name, COUNT(e.id), COALESCE(SUM(e.amount_cents), 0) AS total_cents
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = $1
		LEFT JOIN expenses e ON e.group_id = g.id
		GROUP BY g.id, g.name
		ORDER BY total_cents DESC
		LIMIT 5`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group breakdown: %w", err)
	}
	defer grpRows.Close()
	for grpRows.Next() {
		var gt GroupTotal
		if err := grpRows.Scan(&gt.ID, &gt.Name, &gt.ExpenseCount, &gt.TotalCents); err != nil {
			return nil, fmt.Errorf("failed to scan group total: %w", err)
		}
		s.TopGroups = append(s.TopGroups, gt)
	}
	if err := grpRows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *PostgresExpenseRepository) IndexEntries(ctx context.Context) ([]IndexEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, description FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("failed to load index entries: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Description); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func collectExpenses(rows pgx.Rows) ([]Expense, error) {
	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
