package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/domain/expense"
)

func apiRequest(app *testApp, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, req)
	return rec
}

func apiLogin(t *testing.T, app *testApp, identifier, password string) (access, refresh string) {
	t.Helper()
	rec := apiRequest(app, http.MethodPost, "/api/v1/auth/login",
		`{"identifier":"`+identifier+`","password":"`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		User         struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, identifier, resp.User.Username)
	return resp.AccessToken, resp.RefreshToken
}

func TestAPILoginAndListExpenses(t *testing.T) {
	app := newTestApp(t)
	newBrowser(t, app).signup("ana")
	access, _ := apiLogin(t, app, "ana", "password1")

	user, err := app.authRepo.GetUserByUsername(context.Background(), "ana")
	require.NoError(t, err)
	_, err = app.expRepo.Create(context.Background(), &expense.Expense{
		UserID:      user.ID,
		Description: "Coffee",
		AmountCents: 450,
		SpentOn:     time.Now(),
	})
	require.NoError(t, err)

	rec := apiRequest(app, http.MethodGet, "/api/v1/expenses", "", access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Expenses []struct {
			Description string `json:"description"`
			Amount      string `json:"amount"`
			AmountCents int64  `json:"amount_cents"`
			Currency    string `json:"currency"`
		} `json:"expenses"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Expenses, 1)
	assert.Equal(t, "Coffee", resp.Expenses[0].Description)
	assert.Equal(t, "4.50", resp.Expenses[0].Amount)
	assert.Equal(t, int64(450), resp.Expenses[0].AmountCents)
	assert.Equal(t, "USD", resp.Expenses[0].Currency)
	assert.Equal(t, int64(1), resp.Total)
}

func TestAPIRequiresBearerToken(t *testing.T) {
	app := newTestApp(t)

	rec := apiRequest(app, http.MethodGet, "/api/v1/expenses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Contains(t, rec.Body.String(), "missing bearer token")

	rec = apiRequest(app, http.MethodGet, "/api/v1/expenses", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAPILoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	newBrowser(t, app).signup("ana")

	rec := apiRequest(app, http.MethodPost, "/api/v1/auth/login",
		`{"identifier":"ana","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")

	rec = apiRequest(app, http.MethodPost, "/api/v1/auth/login", `{broken`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIRefreshRotatesTokens(t *testing.T) {
	app := newTestApp(t)
	newBrowser(t, app).signup("ana")
	_, refresh := apiLogin(t, app, "ana", "password1")

	rec := apiRequest(app, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)

	rec = apiRequest(app, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"garbage"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIChat(t *testing.T) {
	app := newTestApp(t)
	app.generator.reply = `{"expenses":[{"amount":"12.00","description":"Lunch","category_name":"Food","group_name":null,"is_new_category":true,"suggested_icon":"restaurant"}]}`
	newBrowser(t, app).signup("ana")
	access, _ := apiLogin(t, app, "ana", "password1")

	rec := apiRequest(app, http.MethodPost, "/api/v1/chat", `{"message":"lunch 12"}`, access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Reply    string `json:"reply"`
		Expenses []struct {
			Description   string `json:"description"`
			AmountCents   int64  `json:"amount_cents"`
			Category      string `json:"category"`
			IsAIGenerated bool   `json:"is_ai_generated"`
		} `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "✅ Added expense: Lunch - $12.00 [Food]")
	require.Len(t, resp.Expenses, 1)
	assert.Equal(t, "Lunch", resp.Expenses[0].Description)
	assert.Equal(t, int64(1200), resp.Expenses[0].AmountCents)
	assert.Equal(t, "Food", resp.Expenses[0].Category)
	assert.True(t, resp.Expenses[0].IsAIGenerated)

	rec = apiRequest(app, http.MethodPost, "/api/v1/chat", `{"message":""}`, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIChatWhenNotConfigured(t *testing.T) {
	app := newTestApp(t)
	app.generator.configured = false
	newBrowser(t, app).signup("ana")
	access, _ := apiLogin(t, app, "ana", "password1")

	rec := apiRequest(app, http.MethodPost, "/api/v1/chat", `{"message":"lunch 12"}`, access)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestAPICORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/expenses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
