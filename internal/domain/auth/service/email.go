package service

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/resend/resend-go/v2"
)

// EmailSender delivers transactional auth emails.
type EmailSender interface {
	SendVerificationEmail(email, name, token string) error
	SendPasswordResetEmail(email, name, token string) error
	SendWelcomeEmail(email, name string) error
}

// ResendEmailService implements EmailSender using Resend. When no API
// key is configured every send is skipped with a warning so local
// development works without credentials.
type ResendEmailService struct {
	client    *resend.Client
	logger    *slog.Logger
	fromEmail string
	baseURL   string
}

// NewEmailService creates an email service from environment configuration
func NewEmailService(logger *slog.Logger) *ResendEmailService {
	apiKey := os.Getenv("RESEND_API_KEY")
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}

	fromEmail := os.Getenv("RESEND_FROM_EMAIL")
	if fromEmail == "" {
		fromEmail = "Tally <hello@tallyhq.app>"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &ResendEmailService{
		client:    client,
		logger:    logger,
		fromEmail: fromEmail,
		baseURL:   baseURL,
	}
}

// SendVerificationEmail sends the email verification link
func (s *ResendEmailService) SendVerificationEmail(email, name, token string) error {
	if s.client == nil {
		s.logger.Warn("resend client not configured, skipping verification email")
		return nil
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937; max-width: 480px; margin: 0 auto; padding: 32px;">
  <h1 style="font-size: 22px;">Verify your email</h1>
  <p>Hi %s,</p>
  <p>Welcome to Tally. Confirm your email address to finish setting up your account.</p>
  <p><a href="%s" style="background: #0d9488; color: #ffffff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">Verify email</a></p>
  <p style="color: #6b7280; font-size: 13px;">This link expires in 24 hours. If you didn't create an account, you can ignore this email.</p>
</body>
</html>
`, name, link)

	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "Verify your Tally email",
		Html:    html,
	})
	return err
}

// SendPasswordResetEmail sends the password reset link
func (s *ResendEmailService) SendPasswordResetEmail(email, name, token string) error {
	if s.client == nil {
		s.logger.Warn("resend client not configured, skipping password reset email")
		return nil
	}

	link := fmt.Sprintf("%s/password-reset/confirm?token=%s", s.baseURL, token)
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937; max-width: 480px; margin: 0 auto; padding: 32px;">
  <h1 style="font-size: 22px;">Reset your password</h1>
  <p>Hi %s,</p>
  <p>Someone requested a password reset for your Tally account. If that was you, set a new password below.</p>
  <p><a href="%s" style="background: #0d9488; color: #ffffff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">Reset password</a></p>
  <p style="color: #6b7280; font-size: 13px;">This link expires in 1 hour. If you didn't request a reset, your password is unchanged.</p>
</body>
</html>
`, name, link)

	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "Reset your Tally password",
		Html:    html,
	})
	return err
}

// SendWelcomeEmail sends the post-verification welcome note
func (s *ResendEmailService) SendWelcomeEmail(email, name string) error {
	if s.client == nil {
		s.logger.Warn("resend client not configured, skipping welcome email")
		return nil
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937; max-width: 480px; margin: 0 auto; padding: 32px;">
  <h1 style="font-size: 22px;">You're all set</h1>
  <p>Hi %s,</p>
  <p>Your email is verified. Add your first expense, or just tell the chat something like "coffee 4.50" and let it do the typing.</p>
  <p><a href="%s" style="background: #0d9488; color: #ffffff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">Open Tally</a></p>
</body>
</html>
`, name, s.baseURL)

	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: "Welcome to Tally",
		Html:    html,
	})
	return err
}
