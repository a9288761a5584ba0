package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/tallyhq/tally/internal/domain/auth/repository"
)

const (
	sessionName     = "tally_session"
	sessionTokenKey = "session_token"
)

// Flash kinds map onto the stylesheet's alert classes.
const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
	flashInfo    = "info"
)

var flashKinds = []string{flashSuccess, flashError, flashWarning, flashInfo}

// Flash is a one-shot message surfaced on the next rendered page.
type Flash struct {
	Kind string
	Text string
}

type contextKey string

const userContextKey = contextKey("user")

// userFrom returns the authenticated user, or nil for anonymous requests.
func userFrom(ctx context.Context) *repository.User {
	u, _ := ctx.Value(userContextKey).(*repository.User)
	return u
}

func withUserContext(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func newSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// sessionToken returns the opaque session token from the cookie, if any.
func (s *Server) sessionToken(r *http.Request) string {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[sessionTokenKey].(string)
	return token
}

// setSessionToken stores the session token in the cookie.
func (s *Server) setSessionToken(w http.ResponseWriter, r *http.Request, token string) {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values[sessionTokenKey] = token
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to save session cookie", slog.Any("error", err))
	}
}

// clearSession removes the auth token. The cookie itself stays so any
// flash queued for the next page survives.
func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, sessionTokenKey)
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to clear session cookie", slog.Any("error", err))
	}
}

// flash queues a one-shot message for the next page render.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, kind, text string) {
	sess, _ := s.store.Get(r, sessionName)
	sess.AddFlash(text, "flash_"+kind)
	if err := sess.Save(r, w); err != nil {
		s.logger.Warn("failed to save flash", slog.Any("error", err))
	}
}

// popFlashes drains all queued flashes in display order.
func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return nil
	}

	var out []Flash
	for _, kind := range flashKinds {
		for _, v := range sess.Flashes("flash_" + kind) {
			if text, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Text: text})
			}
		}
	}
	if len(out) > 0 {
		if err := sess.Save(r, w); err != nil {
			s.logger.Warn("failed to save session after flashes", slog.Any("error", err))
		}
	}
	return out
}
