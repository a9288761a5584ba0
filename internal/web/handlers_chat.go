package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tallyhq/tally/internal/domain/chat"
)

type chatPage struct {
	page
	Messages []chat.Message
	Enabled  bool
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	messages, err := s.chat.History(r.Context(), user.ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "chat.html", &chatPage{
		page:     s.page(r, w, "AI Chat"),
		Messages: messages,
		Enabled:  s.chat.Enabled(),
	})
}

// handleChatMessage runs a message through the ingestion pipeline. htmx
// requests get the refreshed conversation back as a fragment; plain form
// posts follow the usual redirect.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	text := strings.TrimSpace(r.FormValue("message"))

	_, err := s.chat.Ingest(r.Context(), user.ID, text)
	if err != nil && !recoverableChatError(err) {
		s.serverError(w, r, err)
		return
	}

	if isHTMX(r) {
		messages, histErr := s.chat.History(r.Context(), user.ID)
		if histErr != nil {
			s.serverError(w, r, histErr)
			return
		}
		s.renderPartial(w, r, "chat.html", "chat_messages", &chatPage{
			Messages: messages,
			Enabled:  s.chat.Enabled(),
		})
		return
	}

	if errors.Is(err, chat.ErrEmptyMessage) {
		s.flash(w, r, flashWarning, "Type something first.")
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// recoverableChatError reports errors the conversation already answered
// with an assistant reply, so the page just needs re-rendering.
func recoverableChatError(err error) bool {
	return errors.Is(err, chat.ErrEmptyMessage) ||
		errors.Is(err, chat.ErrNotConfigured) ||
		errors.Is(err, chat.ErrUnavailable) ||
		errors.Is(err, chat.ErrInvalidResponse) ||
		errors.Is(err, chat.ErrNoExpenses)
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if err := s.chat.Clear(r.Context(), user.ID); err != nil {
		s.serverError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.renderPartial(w, r, "chat.html", "chat_messages", &chatPage{Enabled: s.chat.Enabled()})
		return
	}
	s.flash(w, r, flashSuccess, "Conversation cleared.")
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}
