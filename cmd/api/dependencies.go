package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authrepo "github.com/tallyhq/tally/internal/domain/auth/repository"
	authservice "github.com/tallyhq/tally/internal/domain/auth/service"
	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/chat"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/internal/domain/suggest"

	"github.com/tallyhq/tally/pkg/config"
	"github.com/tallyhq/tally/pkg/cron"
	"github.com/tallyhq/tally/pkg/db"
	"github.com/tallyhq/tally/pkg/gemini"
	"github.com/tallyhq/tally/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Repositories
	AuthRepo     authrepo.AuthRepository
	CategoryRepo category.Repository
	GroupRepo    group.Repository
	ExpenseRepo  expense.Repository
	ChatRepo     chat.Repository

	// Services
	TokenManager    authservice.TokenManager
	AuthService     *authservice.AuthService
	CategoryService *category.Service
	GroupService    *group.Service
	ExpenseService  *expense.Service
	SuggestService  *suggest.Service
	ChatService     *chat.Service
	FileStorage     storage.Storage
	SearchIndex     *expense.SearchIndex
	GeminiClient    *gemini.Client
	Scheduler       *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Observability.MetricsEnabled {
		deps.Registry = prometheus.NewRegistry()
		deps.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Initialize database
	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	// Initialize repositories
	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	// Initialize services
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.AuthRepo = authrepo.NewPostgresAuthRepository(d.DB.Pool)
	d.CategoryRepo = category.NewPostgresRepository(d.DB.Pool)
	d.GroupRepo = group.NewPostgresGroupRepository(d.DB.Pool)
	d.ExpenseRepo = expense.NewPostgresExpenseRepository(d.DB.Pool)
	d.ChatRepo = chat.NewPostgresRepository(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	jwtSecret := d.Config.Auth.JWTSecret
	if jwtSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	accessTokenTTL := 1 * time.Hour
	refreshTokenTTL := d.Config.Auth.SessionTTL

	d.TokenManager = authservice.NewTokenManager(jwtSecret, jwtSecret, accessTokenTTL, refreshTokenTTL)
	emailService := authservice.NewEmailService(d.Logger)
	d.AuthService = authservice.NewAuthService(
		d.AuthRepo,
		d.TokenManager,
		emailService,
		d.Logger,
		refreshTokenTTL,
	)

	d.CategoryService = category.NewService(d.CategoryRepo, d.Logger)
	d.GroupService = group.NewService(d.GroupRepo, d.Logger)

	// File storage for receipt uploads
	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageType(d.Config.Storage.Type),
		LocalPath: d.Config.Storage.LocalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	// In-memory search index, filled from the database below
	index, err := expense.NewSearchIndex()
	if err != nil {
		return fmt.Errorf("failed to init search index: %w", err)
	}
	d.SearchIndex = index

	d.ExpenseService = expense.NewService(
		d.ExpenseRepo,
		d.CategoryService,
		d.GroupService,
		d.FileStorage,
		d.SearchIndex,
		d.Logger,
	)

	d.SuggestService = suggest.NewService(suggest.NewEngine(), d.CategoryService, d.Logger)

	// AI chat entry. An unset API key leaves the rest of the app working
	// with the chat page showing a disabled notice.
	d.GeminiClient = gemini.NewClient(gemini.Config{
		APIKey: d.Config.Gemini.APIKey,
		Model:  d.Config.Gemini.Model,
	}, d.Logger)

	var chatMetrics *chat.Metrics
	if d.Registry != nil {
		chatMetrics = chat.NewMetrics(d.Registry)
	}
	d.ChatService = chat.NewService(
		d.GeminiClient,
		d.CategoryService,
		d.GroupService,
		d.ExpenseService,
		d.ChatRepo,
		d.Config.Currency,
		chatMetrics,
		d.Logger,
	)

	d.Scheduler = cron.NewScheduler(d.AuthRepo, d.ChatRepo, d.Logger)

	// Warm the search index so description search works immediately.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := d.ExpenseService.RebuildSearchIndex(ctx); err != nil {
		d.Logger.Warn("failed to warm search index", slog.Any("error", err))
	}

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.SearchIndex != nil {
		if err := d.SearchIndex.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
