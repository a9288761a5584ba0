// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	authrepo "github.com/tallyhq/tally/internal/domain/auth/repository"
	"github.com/tallyhq/tally/internal/domain/chat"
)

const jobTimeout = 5 * time.Minute

// Scheduler manages background maintenance jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	authRepo authrepo.AuthRepository
	history  chat.Repository
	logger   *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(authRepo authrepo.AuthRepository, history chat.Repository, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		authRepo: authRepo,
		history:  history,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Expired session and token purge: runs daily at 2:00 AM
	if _, err := s.cron.AddFunc("0 2 * * *", s.purgeExpiredCredentials); err != nil {
		return err
	}

	// Chat history trim: runs daily at 2:30 AM
	if _, err := s.cron.AddFunc("30 2 * * *", s.trimChatHistory); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers every maintenance job (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.purgeExpiredCredentials()
	go s.trimChatHistory()
}

// purgeExpiredCredentials removes login sessions and one-time tokens
// past their expiry.
func (s *Scheduler) purgeExpiredCredentials() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sessions, err := s.authRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		s.logger.Error("failed to purge expired sessions", slog.Any("error", err))
	}

	tokens, err := s.authRepo.DeleteExpiredTokens(ctx)
	if err != nil {
		s.logger.Error("failed to purge expired tokens", slog.Any("error", err))
	}

	s.logger.Info("expired credential purge completed",
		slog.Int64("sessions_deleted", sessions),
		slog.Int64("tokens_deleted", tokens),
	)
}

// trimChatHistory caps every user's conversation at the retention limit.
func (s *Scheduler) trimChatHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	trimmed, err := s.history.TrimAll(ctx, chat.HistoryLimit)
	if err != nil {
		s.logger.Error("failed to trim chat history", slog.Any("error", err))
		return
	}

	s.logger.Info("chat history trim completed",
		slog.Int64("messages_deleted", trimmed),
	)
}
