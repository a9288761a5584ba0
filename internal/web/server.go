// Package web is the HTTP presentation layer: server-rendered pages with
// htmx progressive enhancement, plus a small JSON API for token clients.
package web

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/chat"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/internal/domain/suggest"

	authservice "github.com/tallyhq/tally/internal/domain/auth/service"
)

// Options carries the server-level knobs from configuration.
type Options struct {
	BaseURL            string
	SessionSecret      string
	Currency           string
	RateLimitPerSecond float64
	RateLimitBurst     int
	GoogleClientID     string
	GoogleClientSecret string

	// Registry enables HTTP metrics when set.
	Registry prometheus.Registerer
}

// Services bundles the domain services the handlers call.
type Services struct {
	Auth       *authservice.AuthService
	Categories *category.Service
	Groups     *group.Service
	Expenses   *expense.Service
	Suggest    *suggest.Service
	Chat       *chat.Service

	// Health reports backend readiness for the health endpoint.
	Health func(ctx context.Context) error
}

// Server renders pages and serves the JSON API.
type Server struct {
	logger    *slog.Logger
	opts      Options
	store     *sessions.CookieStore
	templates map[string]*template.Template
	mux       *http.ServeMux
	handler   http.Handler
	limiter   *clientLimiter
	metrics   *httpMetrics
	currency  string

	auth       *authservice.AuthService
	categories *category.Service
	groups     *group.Service
	expenses   *expense.Service
	suggest    *suggest.Service
	chat       *chat.Service
	health     func(ctx context.Context) error
}

// NewServer wires templates, sessions, OAuth providers and routes.
func NewServer(opts Options, svcs Services, logger *slog.Logger) (*Server, error) {
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}

	templates, err := parseTemplates(opts.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	store := newSessionStore(opts.SessionSecret, strings.HasPrefix(opts.BaseURL, "https://"))

	s := &Server{
		logger:     logger,
		opts:       opts,
		store:      store,
		templates:  templates,
		limiter:    newClientLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst),
		currency:   opts.Currency,
		auth:       svcs.Auth,
		categories: svcs.Categories,
		groups:     svcs.Groups,
		expenses:   svcs.Expenses,
		suggest:    svcs.Suggest,
		chat:       svcs.Chat,
		health:     svcs.Health,
	}

	if opts.Registry != nil {
		s.metrics = newHTTPMetrics(opts.Registry)
	}

	if opts.GoogleClientID != "" && opts.GoogleClientSecret != "" {
		gothic.Store = store
		goth.UseProviders(
			google.New(opts.GoogleClientID, opts.GoogleClientSecret, opts.BaseURL+"/auth/google/callback"),
		)
	}

	s.routes()
	return s, nil
}

// Handler returns the fully assembled middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops background goroutines owned by the server.
func (s *Server) Close() {
	s.limiter.stop()
}

func (s *Server) routes() {
	mux := http.NewServeMux()
	s.mux = mux

	mux.Handle("GET /static/", cacheStatic(http.FileServerFS(staticFS)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Auth pages.
	mux.Handle("GET /login", s.redirectIfLoggedIn(http.HandlerFunc(s.handleLoginPage)))
	mux.Handle("POST /login", s.redirectIfLoggedIn(http.HandlerFunc(s.handleLoginSubmit)))
	mux.Handle("GET /signup", s.redirectIfLoggedIn(http.HandlerFunc(s.handleSignupPage)))
	mux.Handle("POST /signup", s.redirectIfLoggedIn(http.HandlerFunc(s.handleSignupSubmit)))
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /password-reset", s.handlePasswordResetPage)
	mux.HandleFunc("POST /password-reset", s.handlePasswordResetSubmit)
	mux.HandleFunc("GET /password-reset/confirm", s.handlePasswordResetConfirmPage)
	mux.HandleFunc("POST /password-reset/confirm", s.handlePasswordResetConfirmSubmit)
	mux.HandleFunc("GET /verify-email", s.handleVerifyEmail)
	mux.HandleFunc("POST /verify-email/resend", s.handleResendVerification)
	mux.HandleFunc("GET /auth/{provider}", s.handleOAuthBegin)
	mux.HandleFunc("GET /auth/{provider}/callback", s.handleOAuthCallback)

	// Application pages, all login-gated.
	authed := func(h http.HandlerFunc) http.Handler {
		return s.requireLogin(h)
	}

	mux.Handle("GET /{$}", authed(s.handleDashboard))
	mux.Handle("GET /settings", authed(s.handleSettingsPage))
	mux.Handle("POST /settings/password", authed(s.handleChangePassword))

	mux.Handle("GET /expenses", authed(s.handleExpenseList))
	mux.Handle("GET /expenses/new", authed(s.handleExpenseNewPage))
	mux.Handle("POST /expenses/new", authed(s.handleExpenseCreate))
	mux.Handle("GET /expenses/export.csv", authed(s.handleExpenseExportCSV))
	mux.Handle("GET /expenses/export.xlsx", authed(s.handleExpenseExportXLSX))
	mux.Handle("GET /expenses/suggest-category", authed(s.handleSuggestCategory))
	mux.Handle("POST /expenses/quick", authed(s.handleExpenseQuick))
	mux.Handle("GET /expenses/{id}/edit", authed(s.handleExpenseEditPage))
	mux.Handle("POST /expenses/{id}/edit", authed(s.handleExpenseUpdate))
	mux.Handle("GET /expenses/{id}/delete", authed(s.handleExpenseDeletePage))
	mux.Handle("POST /expenses/{id}/delete", authed(s.handleExpenseDelete))
	mux.Handle("GET /expenses/{id}/receipt", authed(s.handleExpenseReceipt))

	mux.Handle("GET /categories", authed(s.handleCategoryList))
	mux.Handle("GET /categories/new", authed(s.handleCategoryNewPage))
	mux.Handle("POST /categories/new", authed(s.handleCategoryCreate))
	mux.Handle("GET /categories/{id}/edit", authed(s.handleCategoryEditPage))
	mux.Handle("POST /categories/{id}/edit", authed(s.handleCategoryUpdate))
	mux.Handle("GET /categories/{id}/delete", authed(s.handleCategoryDeletePage))
	mux.Handle("POST /categories/{id}/delete", authed(s.handleCategoryDelete))

	mux.Handle("GET /groups", authed(s.handleGroupList))
	mux.Handle("GET /groups/new", authed(s.handleGroupNewPage))
	mux.Handle("POST /groups/new", authed(s.handleGroupCreate))
	mux.Handle("GET /groups/{id}", authed(s.handleGroupDetail))
	mux.Handle("GET /groups/{id}/edit", authed(s.handleGroupEditPage))
	mux.Handle("POST /groups/{id}/edit", authed(s.handleGroupUpdate))
	mux.Handle("GET /groups/{id}/delete", authed(s.handleGroupDeletePage))
	mux.Handle("POST /groups/{id}/delete", authed(s.handleGroupDelete))

	mux.Handle("GET /chat", authed(s.handleChatPage))
	mux.Handle("POST /chat", authed(s.handleChatMessage))
	mux.Handle("POST /chat/clear", authed(s.handleChatClear))

	// JSON API for token clients.
	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/auth/login", s.apiLogin)
	api.HandleFunc("POST /api/v1/auth/refresh", s.apiRefresh)
	api.Handle("POST /api/v1/chat", s.requireBearer(http.HandlerFunc(s.apiChat)))
	api.Handle("GET /api/v1/expenses", s.requireBearer(http.HandlerFunc(s.apiExpenseList)))

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})
	mux.Handle("/api/v1/", corsWrapper.Handler(api))

	s.handler = chain(mux,
		requestID,
		s.logRequests,
		s.recoverPanic,
		securityHeaders,
		s.instrument,
		s.rateLimitWrites,
		s.withUser,
	)
}

func cacheStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Error("health check failed", slog.Any("error", err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"unhealthy"}`)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
