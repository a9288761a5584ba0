// Command seed populates the database with a demo account, sample
// categories, groups and expenses so a fresh install has something to
// show. Safe to run more than once.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/auth/common"
	authrepo "github.com/tallyhq/tally/internal/domain/auth/repository"
	authservice "github.com/tallyhq/tally/internal/domain/auth/service"
	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/pkg/config"
	"github.com/tallyhq/tally/pkg/db"
	"github.com/tallyhq/tally/pkg/logging"
	"github.com/tallyhq/tally/pkg/money"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
	demoPassword = "demo123"
)

var demoCategories = []struct {
	name string
	icon string
}{
	{"Groceries", "shopping_cart"},
	{"Dining Out", "restaurant"},
	{"Transportation", "directions_car"},
	{"Gas & Fuel", "local_gas_station"},
	{"Entertainment", "movie"},
	{"Health & Fitness", "fitness_center"},
	{"Utilities", "electric_bolt"},
	{"Shopping", "shopping_bag"},
	{"Travel", "flight"},
	{"Coffee & Tea", "local_cafe"},
}

var demoGroups = []struct {
	name        string
	description string
}{
	{"Weekend Trip", "Annual camping trip with friends"},
	{"Office Team", "Team lunch and activities"},
	{"Roommates", "Shared apartment expenses"},
}

var demoExpenses = []struct {
	description string
	cents       int64
	daysAgo     int
	category    string
	group       string
	aiGenerated bool
}{
	{"Weekly grocery shopping", 125_50, 2, "Groceries", "", false},
	{"Gas for car", 45_00, 3, "Gas & Fuel", "", true},
	{"Lunch at Italian restaurant", 32_75, 1, "Dining Out", "", true},
	{"Movie tickets", 28_00, 5, "Entertainment", "", false},
	{"Morning coffee", 5_50, 0, "Coffee & Tea", "", true},
	{"Tent for camping", 299_99, 7, "Shopping", "Weekend Trip", true},
	{"Campsite reservation", 75_00, 10, "Travel", "Weekend Trip", false},
	{"Team lunch buffet", 180_00, 4, "Dining Out", "Office Team", true},
	{"Electricity bill", 95_00, 15, "Utilities", "Roommates", false},
	{"Gym membership", 49_99, 8, "Health & Fitness", "", false},
}

func main() {
	extra := flag.Int("extra", 40, "number of randomized expenses to generate")
	randSeed := flag.Int64("seed", 1, "seed for the randomized expenses")
	flag.Parse()

	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database, err := db.New(db.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: 5,
		MinConns: 1,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	authRepo := authrepo.NewPostgresAuthRepository(database.Pool)
	catRepo := category.NewPostgresRepository(database.Pool)
	groupRepo := group.NewPostgresGroupRepository(database.Pool)
	expRepo := expense.NewPostgresExpenseRepository(database.Pool)

	user, err := ensureDemoUser(ctx, authRepo, logger)
	if err != nil {
		logger.Error("failed to ensure demo user", slog.Any("error", err))
		os.Exit(1)
	}

	categories, err := ensureCategories(ctx, catRepo, user.ID)
	if err != nil {
		logger.Error("failed to ensure categories", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("categories ready", slog.Int("count", len(categories)))

	groups, err := ensureGroups(ctx, groupRepo, user.ID)
	if err != nil {
		logger.Error("failed to ensure groups", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("groups ready", slog.Int("count", len(groups)))

	created, err := seedExpenses(ctx, expRepo, user.ID, categories, groups, *extra, *randSeed, logger)
	if err != nil {
		logger.Error("failed to seed expenses", slog.Any("error", err))
		os.Exit(1)
	}

	summary, err := expRepo.DashboardSummary(ctx, user.ID)
	if err != nil {
		logger.Error("failed to load summary", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("seed complete",
		slog.Int("expenses_created", created),
		slog.Int64("expenses_total", summary.ExpenseCount),
		slog.String("total_spent", money.FormatCents(summary.TotalCents, cfg.Currency)),
	)
	logger.Info("demo login ready",
		slog.String("username", demoUsername),
		slog.String("password", demoPassword),
		slog.String("url", cfg.Server.BaseURL),
	)
}

// ensureDemoUser returns the demo account, creating it on first run. The
// password is hashed directly so the fixed demo credentials stay stable
// regardless of signup policy.
func ensureDemoUser(ctx context.Context, repo authrepo.AuthRepository, logger *slog.Logger) (*authrepo.User, error) {
	user, err := repo.GetUserByUsername(ctx, demoUsername)
	if err == nil {
		logger.Info("using existing demo user", slog.String("username", user.Username))
		return user, nil
	}
	if !errors.Is(err, common.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := authservice.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}
	user, err = repo.CreateUser(ctx, demoEmail, demoUsername, hashed, "Demo User")
	if err != nil {
		return nil, err
	}
	if err := repo.VerifyEmail(ctx, user.ID); err != nil {
		return nil, err
	}
	logger.Info("created demo user", slog.String("username", user.Username))
	return user, nil
}

func ensureCategories(ctx context.Context, repo category.Repository, userID uuid.UUID) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID, len(demoCategories))
	for _, c := range demoCategories {
		cat, err := repo.GetOrCreate(ctx, userID, c.name, c.icon)
		if err != nil {
			return nil, err
		}
		out[c.name] = cat.ID
	}
	return out, nil
}

func ensureGroups(ctx context.Context, repo group.Repository, userID uuid.UUID) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID, len(demoGroups))
	for _, g := range demoGroups {
		existing, err := repo.FindByNameForMember(ctx, userID, g.name)
		if err == nil {
			out[g.name] = existing.ID
			continue
		}
		if !errors.Is(err, group.ErrNotFound) {
			return nil, err
		}

		created, err := repo.Create(ctx, userID, g.name, g.description)
		if err != nil {
			return nil, err
		}
		if err := repo.AddMembers(ctx, created.ID, []uuid.UUID{userID}); err != nil {
			return nil, err
		}
		out[g.name] = created.ID
	}
	return out, nil
}

// seedExpenses inserts the fixed sample expenses plus a batch of
// randomized ones. Skipped entirely when the user already has expenses,
// so rerunning the tool does not duplicate data.
func seedExpenses(ctx context.Context, repo expense.Repository, userID uuid.UUID, categories, groups map[string]uuid.UUID, extra int, randSeed int64, logger *slog.Logger) (int, error) {
	count, err := repo.Count(ctx, userID, expense.Filter{})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info("expenses already present, skipping", slog.Int64("count", count))
		return 0, nil
	}

	created := 0
	for _, e := range demoExpenses {
		rec := &expense.Expense{
			UserID:        userID,
			Description:   e.description,
			AmountCents:   e.cents,
			SpentOn:       dateDaysAgo(e.daysAgo),
			IsAIGenerated: e.aiGenerated,
		}
		if id, ok := categories[e.category]; ok {
			catID := id
			rec.CategoryID = &catID
		}
		if id, ok := groups[e.group]; ok {
			groupID := id
			rec.GroupID = &groupID
		}
		if _, err := repo.Create(ctx, rec); err != nil {
			return created, err
		}
		created++
	}

	gen := money.NewTestDataGeneratorWithSeed(randSeed)
	rng := rand.New(rand.NewSource(randSeed))

	categoryIDs := make([]uuid.UUID, 0, len(categories))
	for _, id := range categories {
		categoryIDs = append(categoryIDs, id)
	}
	groupIDs := make([]uuid.UUID, 0, len(groups))
	for _, id := range groups {
		groupIDs = append(groupIDs, id)
	}

	for i := 0; i < extra; i++ {
		var amount money.Amount
		switch roll := rng.Intn(100); {
		case roll < 70:
			amount = gen.SmallPurchase(money.DefaultCurrency)
		case roll < 95:
			amount = gen.MediumPurchase(money.DefaultCurrency)
		default:
			amount = gen.LargePurchase(money.DefaultCurrency)
		}

		description := gen.ExpenseDescription()
		if rng.Intn(100) < 40 {
			description = gen.Merchant()
		}

		rec := &expense.Expense{
			UserID:        userID,
			Description:   description,
			AmountCents:   amount.Cents(),
			SpentOn:       truncateToDay(gen.SpentOn(90)),
			IsAIGenerated: rng.Intn(100) < 30,
		}
		if len(categoryIDs) > 0 {
			catID := categoryIDs[rng.Intn(len(categoryIDs))]
			rec.CategoryID = &catID
		}
		if len(groupIDs) > 0 && rng.Intn(100) < 20 {
			groupID := groupIDs[rng.Intn(len(groupIDs))]
			rec.GroupID = &groupID
		}
		if _, err := repo.Create(ctx, rec); err != nil {
			return created, err
		}
		created++
	}

	logger.Info("expenses seeded", slog.Int("count", created))
	return created, nil
}

func dateDaysAgo(n int) time.Time {
	return truncateToDay(time.Now().UTC().AddDate(0, 0, -n))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
