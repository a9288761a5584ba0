package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/domain/auth/common"
	authservice "github.com/tallyhq/tally/internal/domain/auth/service"
	"github.com/tallyhq/tally/internal/domain/chat"
	"github.com/tallyhq/tally/internal/domain/expense"
	"github.com/tallyhq/tally/pkg/money"
)

const apiUserKey = contextKey("api_user_id")

func contextWithAPIUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, apiUserKey, id)
}

func apiUserID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(apiUserKey).(uuid.UUID)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode json response", slog.Any("error", err))
	}
}

func apiError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// requireBearer authenticates API requests with a JWT access token.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			apiError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.auth.ValidateAccessToken(r.Context(), token)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			apiError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := contextWithAPIUser(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func newTokenResponse(pair *authservice.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    pair.AccessTokenExpiresAt,
	}
}

func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := s.auth.Login(r.Context(), authservice.LoginParams{
		Identifier: strings.TrimSpace(req.Identifier),
		Password:   req.Password,
		Metadata:   s.sessionMetadata(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			apiError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, authservice.ErrAccountInactive):
			apiError(w, http.StatusForbidden, "account is deactivated")
		default:
			s.logger.Error("api login failed", slog.Any("error", err))
			apiError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, struct {
		tokenResponse
		User struct {
			ID          string `json:"id"`
			Email       string `json:"email"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
		} `json:"user"`
	}{
		tokenResponse: newTokenResponse(result.Tokens),
		User: struct {
			ID          string `json:"id"`
			Email       string `json:"email"`
			Username    string `json:"username"`
			DisplayName string `json:"display_name"`
		}{
			ID:          result.User.ID.String(),
			Email:       result.User.Email,
			Username:    result.User.Username,
			DisplayName: result.User.DisplayName,
		},
	})
}

func (s *Server) apiRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		apiError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := s.auth.RefreshTokens(r.Context(), authservice.RefreshTokenParams{
		RefreshToken: req.RefreshToken,
		Metadata:     s.sessionMetadata(r),
	})
	if err != nil {
		apiError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

type apiExpense struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Category      string `json:"category,omitempty"`
	Group         string `json:"group,omitempty"`
	Date          string `json:"date"`
	IsAIGenerated bool   `json:"is_ai_generated"`
}

func (s *Server) toAPIExpense(e expense.Expense) apiExpense {
	return apiExpense{
		ID:            e.ID.String(),
		Description:   e.Description,
		Amount:        money.New(e.AmountCents, s.currency).String(),
		AmountCents:   e.AmountCents,
		Currency:      s.currency,
		Category:      e.CategoryName,
		Group:         e.GroupName,
		Date:          e.SpentOn.Format("2006-01-02"),
		IsAIGenerated: e.IsAIGenerated,
	}
}

func (s *Server) apiChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := s.chat.Ingest(r.Context(), apiUserID(r), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			apiError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrNotConfigured), errors.Is(err, chat.ErrUnavailable):
			apiError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, chat.ErrInvalidResponse), errors.Is(err, chat.ErrNoExpenses):
			apiError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("api chat failed", slog.Any("error", err))
			apiError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	expenses := make([]apiExpense, 0, len(result.Expenses))
	for _, e := range result.Expenses {
		expenses = append(expenses, s.toAPIExpense(e))
	}

	reply := ""
	if result.Reply != nil {
		reply = result.Reply.Body
	}

	writeJSON(w, http.StatusOK, struct {
		Reply    string       `json:"reply"`
		Expenses []apiExpense `json:"expenses"`
		Warnings []string     `json:"warnings,omitempty"`
	}{
		Reply:    reply,
		Expenses: expenses,
		Warnings: result.Warnings,
	})
}

func (s *Server) apiExpenseList(w http.ResponseWriter, r *http.Request) {
	f, _ := expenseFilter(r)

	f.Limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = min(n, 200)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	result, err := s.expenses.ListPage(r.Context(), apiUserID(r), f)
	if err != nil {
		s.logger.Error("api expense list failed", slog.Any("error", err))
		apiError(w, http.StatusInternalServerError, "internal error")
		return
	}

	expenses := make([]apiExpense, 0, len(result.Expenses))
	for _, e := range result.Expenses {
		expenses = append(expenses, s.toAPIExpense(e))
	}

	writeJSON(w, http.StatusOK, struct {
		Expenses []apiExpense `json:"expenses"`
		Total    int64        `json:"total"`
	}{Expenses: expenses, Total: result.Total})
}
