package money

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// TestDataGenerator generates realistic expense test data using gofakeit.
// Used by package tests and by cmd/seed.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// RandomAmount generates a positive Amount within a cent range.
func (g *TestDataGenerator) RandomAmount(currency string, minCents, maxCents int64) Amount {
	if minCents > maxCents {
		minCents, maxCents = maxCents, minCents
	}
	if minCents < 1 {
		minCents = 1
	}
	cents := g.faker.Int64() % (maxCents - minCents + 1)
	if cents < 0 {
		cents = -cents
	}
	return New(minCents+cents, currency)
}

// SmallPurchase generates a typical small purchase ($1 to $50).
func (g *TestDataGenerator) SmallPurchase(currency string) Amount {
	return g.RandomAmount(currency, 100, 50_00)
}

// MediumPurchase generates a typical medium purchase ($50 to $500).
func (g *TestDataGenerator) MediumPurchase(currency string) Amount {
	return g.RandomAmount(currency, 50_00, 500_00)
}

// LargePurchase generates a typical large purchase ($500 to $5000).
func (g *TestDataGenerator) LargePurchase(currency string) Amount {
	return g.RandomAmount(currency, 500_00, 5000_00)
}

var expenseDescriptions = []string{
	"Coffee and pastry",
	"Weekly groceries",
	"Gas station fill-up",
	"Online subscription",
	"Restaurant dinner",
	"Utility bill payment",
	"Office supplies",
	"Gym membership",
	"Phone bill",
	"Movie tickets",
	"Parking fee",
	"Public transit",
	"Pet supplies",
	"Clothing purchase",
	"Pharmacy run",
}

var merchants = []string{
	"Amazon", "Walmart", "Target", "Costco", "Starbucks",
	"Uber", "Netflix", "Spotify", "Whole Foods", "Trader Joe's",
	"CVS Pharmacy", "Shell", "Home Depot", "Best Buy", "IKEA",
}

// ExpenseDescription returns a random expense description.
func (g *TestDataGenerator) ExpenseDescription() string {
	return expenseDescriptions[g.faker.Number(0, len(expenseDescriptions)-1)]
}

// Merchant returns a random merchant name.
func (g *TestDataGenerator) Merchant() string {
	return merchants[g.faker.Number(0, len(merchants)-1)]
}

// SpentOn returns a random date within the past n days.
func (g *TestDataGenerator) SpentOn(days int) time.Time {
	now := time.Now()
	return g.faker.DateRange(now.AddDate(0, 0, -days), now)
}
