package expense

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expenseRowColumns = []string{
	"id", "user_id", "category_id", "group_id", "description",
	"amount_cents", "spent_on", "receipt_file_id", "is_ai_generated",
	"created_at", "updated_at", "category_name", "category_icon", "group_name",
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresExpenseRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresExpenseRepository(mock)
}

func TestCreate_ReturnsIDAndTimestamps(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	expenseID := uuid.New()
	now := time.Now()
	spentOn := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	var noCategory, noGroup, noReceipt *uuid.UUID
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO expenses")).
		WithArgs(userID, noCategory, noGroup, "Coffee", int64(450), spentOn, noReceipt, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(expenseID, now, now))

	e, err := repo.Create(context.Background(), &Expense{
		UserID:        userID,
		Description:   "Coffee",
		AmountCents:   450,
		SpentOn:       spentOn,
		IsAIGenerated: true,
	})
	require.NoError(t, err)
	assert.Equal(t, expenseID, e.ID)
	assert.Equal(t, now, e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	expenseID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1 AND e.user_id = $2")).
		WithArgs(expenseID, userID).
		WillReturnRows(pgxmock.NewRows(expenseRowColumns))

	_, err := repo.GetByID(context.Background(), userID, expenseID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AppliesFilters(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	catID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("e.category_id = $2 AND e.spent_on >= $3")).
		WithArgs(userID, catID, from).
		WillReturnRows(pgxmock.NewRows(expenseRowColumns))

	_, err := repo.List(context.Background(), userID, Filter{
		CategoryID: &catID,
		From:       &from,
		Limit:      20,
		Offset:     20,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount_RestrictedToSearchHits(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectQuery(regexp.QuoteMeta("e.id = ANY($2)")).
		WithArgs(userID, ids).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	n, err := repo.Count(context.Background(), userID, Filter{IDs: ids})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardSummary_CollectsAllSlices(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	groupID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = $1")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(int64(7), int64(123450)))

	mock.ExpectQuery(regexp.QuoteMeta("CURRENT_DATE - INTERVAL '30 days'")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(20000)))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.created_at DESC LIMIT 10")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(expenseRowColumns))

	mock.ExpectQuery(regexp.QuoteMeta("JOIN categories c ON c.id = e.category_id")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"name", "icon", "count", "total_cents"}).
			AddRow("Food & Dining", "restaurant", int64(3), int64(9000)))

	mock.ExpectQuery(regexp.QuoteMeta("JOIN group_members gm ON gm.group_id = g.id AND gm.user_id = $1")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "count", "total_cents"}).
			AddRow(groupID, "Roommates", int64(4), int64(56000)))

	s, err := repo.DashboardSummary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.ExpenseCount)
	assert.Equal(t, int64(123450), s.TotalCents)
	assert.Equal(t, int64(20000), s.Last30DaysCents)
	assert.Empty(t, s.Recent)
	require.Len(t, s.TopCategories, 1)
	assert.Equal(t, "Food & Dining", s.TopCategories[0].Name)
	require.Len(t, s.TopGroups, 1)
	assert.Equal(t, int64(56000), s.TopGroups[0].TotalCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	userID := uuid.New()
	expenseID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM expenses WHERE id = $1 AND user_id = $2")).
		WithArgs(expenseID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), userID, expenseID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
