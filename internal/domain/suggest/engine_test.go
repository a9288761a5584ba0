package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMatch_EarliestKeywordWins(t *testing.T) {
	e := NewEngine()

	// Both UBER and AIRPORT are in the table; the leading token is the
	// merchant and decides the category.
	m := e.Match("uber to airport")
	require.NotNil(t, m)
	assert.Equal(t, "Transportation", m.Category)
	assert.Equal(t, "directions_car", m.Icon)
}

func TestEngineMatch_CaseInsensitive(t *testing.T) {
	e := NewEngine()

	m := e.Match("Morning Starbucks run")
	require.NotNil(t, m)
	assert.Equal(t, "Coffee & Tea", m.Category)
}

func TestEngineMatch_RespectsWordBoundaries(t *testing.T) {
	e := NewEngine()

	// "vegas" contains GAS but not as a word.
	assert.Nil(t, e.Match("souvenir from vegas"))

	m := e.Match("gas for car")
	require.NotNil(t, m)
	assert.Equal(t, "Gas & Fuel", m.Category)
}

func TestEngineMatch_MultiWordKeyword(t *testing.T) {
	e := NewEngine()

	m := e.Match("trader joe haul")
	require.NotNil(t, m)
	assert.Equal(t, "Groceries", m.Category)

	m = e.Match("water bill for march")
	require.NotNil(t, m)
	assert.Equal(t, "Utilities", m.Category)
}

func TestEngineMatch_NoKeyword(t *testing.T) {
	e := NewEngine()
	assert.Nil(t, e.Match("miscellaneous things"))
}
