package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/domain/category"
	"github.com/tallyhq/tally/internal/domain/chat"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/internal/domain/group"
	"github.com/tallyhq/tally/internal/domain/suggest"

	authservice "github.com/tallyhq/tally/internal/domain/auth/service"
)

type testApp struct {
	server    *Server
	authRepo  *fakeAuthRepo
	catRepo   *fakeCategoryRepo
	groupRepo *fakeGroupRepo
	expRepo   *fakeExpenseRepo
	chatRepo  *fakeChatRepo
	generator *fakeGenerator
	health    func(ctx context.Context) error
}

// newTestApp wires the real services over in-memory repositories so
// requests exercise the full middleware and handler chain.
func newTestApp(t *testing.T, mutate ...func(*Options)) *testApp {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	authRepo := newFakeAuthRepo()
	tokens := authservice.NewTokenManager("test-access", "test-refresh", 15*time.Minute, 720*time.Hour)
	authSvc := authservice.NewAuthService(authRepo, tokens, nil, logger, 30*24*time.Hour)

	catRepo := newFakeCategoryRepo()
	catSvc := category.NewService(catRepo, logger)

	groupRepo := newFakeGroupRepo(authRepo)
	groupSvc := group.NewService(groupRepo, logger)

	expRepo := newFakeExpenseRepo(catRepo, groupRepo)
	index, err := expense.NewSearchIndex()
	require.NoError(t, err)
	expSvc := expense.NewService(expRepo, catSvc, groupSvc, nil, index, logger)

	suggestSvc := suggest.NewService(suggest.NewEngine(), catSvc, logger)

	chatRepo := newFakeChatRepo()
	generator := &fakeGenerator{configured: true}
	chatSvc := chat.NewService(generator, catSvc, groupSvc, expSvc, chatRepo, "USD", nil, logger)

	app := &testApp{
		authRepo:  authRepo,
		catRepo:   catRepo,
		groupRepo: groupRepo,
		expRepo:   expRepo,
		chatRepo:  chatRepo,
		generator: generator,
		health:    func(context.Context) error { return nil },
	}

	opts := Options{
		BaseURL:            "http://localhost:8080",
		SessionSecret:      "test-secret",
		Currency:           "USD",
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	srv, err := NewServer(opts, Services{
		Auth:       authSvc,
		Categories: catSvc,
		Groups:     groupSvc,
		Expenses:   expSvc,
		Suggest:    suggestSvc,
		Chat:       chatSvc,
		Health:     func(ctx context.Context) error { return app.health(ctx) },
	}, logger)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	app.server = srv
	return app
}

// browser carries cookies between requests like a real client would.
type browser struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, app *testApp) *browser {
	return &browser{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.server.Handler().ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	b.t.Helper()
	return b.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

// signup registers a user through the form and leaves the browser
// logged in.
func (b *browser) signup(username string) {
	b.t.Helper()
	rec := b.postForm("/signup", url.Values{
		"email":            {username + "@example.com"},
		"username":         {username},
		"display_name":     {""},
		"password":         {"password1"},
		"password_confirm": {"password1"},
	})
	require.Equal(b.t, http.StatusSeeOther, rec.Code, "signup should redirect: %s", rec.Body.String())
	require.Equal(b.t, "/", rec.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	rec := b.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	app.health = func(context.Context) error { return errors.New("db down") }
	rec = b.get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy"}`, rec.Body.String())
}

func TestAnonymousIsRedirectedToLogin(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	for _, path := range []string{"/", "/expenses", "/categories", "/groups", "/chat", "/settings"} {
		rec := b.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	rec := b.get("/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("X-Request-Id", "abc123")
	rec := b.send(req)
	assert.Equal(t, "abc123", rec.Header().Get("X-Request-Id"))
}

func TestStaticAssetsAreServed(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	rec := b.get("/static/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "topnav")
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)

	b.signup("ana")

	// The fresh session reaches the dashboard and sees the welcome flash.
	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to Tally!")
	assert.Contains(t, rec.Body.String(), "ana")

	// Flashes are one-shot.
	rec = b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Welcome to Tally!")

	// Logged-in users skip the login page.
	rec = b.get("/login")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = b.postForm("/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = b.get("/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// Log back in with the username as identifier.
	rec = b.postForm("/login", url.Values{
		"identifier": {"ana"},
		"password":   {"password1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	rec = b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back, ana!")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)
	b.signup("ana")
	b.postForm("/logout", url.Values{})

	for _, attempt := range []url.Values{
		{"identifier": {"ana"}, "password": {"wrong-password"}},
		{"identifier": {"nobody"}, "password": {"password1"}},
	} {
		rec := b.postForm("/login", attempt)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid username or password.")
	}
}

func TestSignupValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "missing email",
			form: url.Values{"username": {"ana"}, "password": {"password1"}, "password_confirm": {"password1"}},
			want: "Email and username are required.",
		},
		{
			name: "password mismatch",
			form: url.Values{"email": {"ana@example.com"}, "username": {"ana"}, "password": {"password1"}, "password_confirm": {"password2"}},
			want: "Passwords do not match.",
		},
		{
			name: "weak password",
			form: url.Values{"email": {"ana@example.com"}, "username": {"ana"}, "password": {"justletters"}, "password_confirm": {"justletters"}},
			want: "letter",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newBrowser(t, app)
			rec := b.postForm("/signup", tc.form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestDuplicateSignupIsRejected(t *testing.T) {
	app := newTestApp(t)
	newBrowser(t, app).signup("ana")

	b := newBrowser(t, app)
	rec := b.postForm("/signup", url.Values{
		"email":            {"ana@example.com"},
		"username":         {"ana2"},
		"password":         {"password1"},
		"password_confirm": {"password1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = b.postForm("/signup", url.Values{
		"email":            {"other@example.com"},
		"username":         {"ana"},
		"password":         {"password1"},
		"password_confirm": {"password1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is taken")
}

func TestChangePasswordRevokesSession(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)
	b.signup("ana")

	rec := b.postForm("/settings/password", url.Values{
		"current_password": {"password1"},
		"password":         {"password2"},
		"password_confirm": {"password2"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	// Old session is gone; login works with the new password only.
	rec = b.get("/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.postForm("/login", url.Values{"identifier": {"ana"}, "password": {"password1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = b.postForm("/login", url.Values{"identifier": {"ana"}, "password": {"password2"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestWriteRateLimit(t *testing.T) {
	app := newTestApp(t, func(o *Options) {
		o.RateLimitPerSecond = 0.01
		o.RateLimitBurst = 1
	})
	b := newBrowser(t, app)

	first := b.postForm("/login", url.Values{"identifier": {"x"}, "password": {"y"}})
	assert.Equal(t, http.StatusUnprocessableEntity, first.Code)

	second := b.postForm("/login", url.Values{"identifier": {"x"}, "password": {"y"}})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// Reads stay unthrottled.
	rec := b.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)
	b.signup("ana")
	b.postForm("/logout", url.Values{})

	// Request always lands on the same neutral message.
	rec := b.postForm("/password-reset", url.Values{"email": {"ana@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = b.get("/login")
	assert.Contains(t, rec.Body.String(), "a reset link is on its way")

	// A bogus token is turned away.
	rec = b.postForm("/password-reset/confirm", url.Values{
		"token":            {"not-a-real-token"},
		"password":         {"password2"},
		"password_confirm": {"password2"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/password-reset", rec.Header().Get("Location"))
}
