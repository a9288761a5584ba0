package suggest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/domain/category"
)

type fakeCategoryLister struct {
	categories []category.Category
}

func (f *fakeCategoryLister) List(context.Context, uuid.UUID) ([]category.Category, error) {
	return f.categories, nil
}

func newTestService(names map[string]string) (*Service, map[string]uuid.UUID) {
	lister := &fakeCategoryLister{}
	ids := make(map[string]uuid.UUID)
	for name, icon := range names {
		id := uuid.New()
		ids[name] = id
		lister.categories = append(lister.categories, category.Category{ID: id, Name: name, Icon: icon})
	}
	return NewService(NewEngine(), lister, slog.New(slog.DiscardHandler)), ids
}

func TestSuggest_KeywordResolvesToOwnCategory(t *testing.T) {
	svc, ids := newTestService(map[string]string{
		"Transportation": "directions_car",
		"Groceries":      "shopping_cart",
	})

	got, err := svc.Suggest(context.Background(), uuid.New(), "uber to airport")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SourceKeyword, got.Source)
	assert.Equal(t, "Transportation", got.Name)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, ids["Transportation"], *got.CategoryID)
}

func TestSuggest_KeywordProposesMissingCategory(t *testing.T) {
	svc, _ := newTestService(map[string]string{"Groceries": "shopping_cart"})

	got, err := svc.Suggest(context.Background(), uuid.New(), "netflix subscription")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SourceKeyword, got.Source)
	assert.Equal(t, "Entertainment", got.Name)
	assert.Equal(t, "movie", got.Icon)
	assert.Nil(t, got.CategoryID, "category does not exist yet, so there is no id")
}

func TestSuggest_FuzzyMatchesTypo(t *testing.T) {
	svc, ids := newTestService(map[string]string{
		"Groceries": "shopping_cart",
		"Travel":    "flight",
	})

	got, err := svc.Suggest(context.Background(), uuid.New(), "grocerys run")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, SourceFuzzy, got.Source)
	assert.Equal(t, "Groceries", got.Name)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, ids["Groceries"], *got.CategoryID)
}

func TestSuggest_NothingAboveThreshold(t *testing.T) {
	svc, _ := newTestService(map[string]string{"Groceries": "shopping_cart"})

	got, err := svc.Suggest(context.Background(), uuid.New(), "xyzzy")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSuggest_EmptyText(t *testing.T) {
	svc, _ := newTestService(nil)

	got, err := svc.Suggest(context.Background(), uuid.New(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, similarity("GROCERIES", "GROCERIES"))
	assert.GreaterOrEqual(t, similarity("GROCERYS", "GROCERIES"), fuzzyThreshold)
	assert.Less(t, similarity("XYZZY", "GROCERIES"), fuzzyThreshold)
	assert.GreaterOrEqual(t, similarity("DINING", "DINING OUT"), fuzzyThreshold)
}
