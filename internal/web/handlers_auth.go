package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/markbates/goth/gothic"

	"github.com/tallyhq/tally/internal/domain/auth/common"
	authservice "github.com/tallyhq/tally/internal/domain/auth/service"
)

type loginPage struct {
	page
	Error      string
	Identifier string
}

type signupPage struct {
	page
	Error       string
	Email       string
	Username    string
	DisplayName string
}

type passwordResetPage struct {
	page
	Error string
	Email string
}

type passwordResetConfirmPage struct {
	page
	Error string
	Token string
}

type settingsPage struct {
	page
	Error string
}

func (s *Server) sessionMetadata(r *http.Request) authservice.SessionMetadata {
	return authservice.SessionMetadata{
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", &loginPage{page: s.page(r, w, "Log in")})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")

	result, err := s.auth.Login(r.Context(), authservice.LoginParams{
		Identifier: identifier,
		Password:   password,
		Metadata:   s.sessionMetadata(r),
	})
	if err != nil {
		msg := "Invalid username or password."
		if errors.Is(err, authservice.ErrAccountInactive) {
			msg = "This account has been deactivated."
		} else if !errors.Is(err, common.ErrInvalidCredentials) {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", &loginPage{
			page:       s.page(r, w, "Log in"),
			Error:      msg,
			Identifier: identifier,
		})
		return
	}

	s.setSessionToken(w, r, result.Tokens.RefreshToken)
	s.flash(w, r, flashSuccess, "Welcome back, "+displayName(result.User.DisplayName, result.User.Username)+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup.html", &signupPage{page: s.page(r, w, "Sign up")})
}

func (s *Server) handleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	form := &signupPage{
		page:        s.page(r, w, "Sign up"),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Username:    strings.TrimSpace(r.FormValue("username")),
		DisplayName: strings.TrimSpace(r.FormValue("display_name")),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	if form.Email == "" || form.Username == "" {
		form.Error = "Email and username are required."
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", form)
		return
	}
	if password != confirm {
		form.Error = "Passwords do not match."
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", form)
		return
	}

	result, err := s.auth.RegisterUser(r.Context(), authservice.RegisterParams{
		Email:       form.Email,
		Username:    form.Username,
		Password:    password,
		DisplayName: form.DisplayName,
		Metadata:    s.sessionMetadata(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserAlreadyExists):
			form.Error = "An account with that email already exists."
		case errors.Is(err, common.ErrUsernameTaken):
			form.Error = "That username is taken."
		case errors.Is(err, authservice.ErrPasswordTooShort),
			errors.Is(err, authservice.ErrPasswordTooWeak):
			form.Error = capitalize(err.Error()) + "."
		default:
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", form)
		return
	}

	s.setSessionToken(w, r, result.Tokens.RefreshToken)
	if result.EmailVerificationRequired {
		s.flash(w, r, flashInfo, "We've sent a verification link to "+form.Email+".")
	}
	s.flash(w, r, flashSuccess, "Welcome to Tally!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := s.sessionToken(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			s.logger.Warn("logout failed", slog.Any("error", err))
		}
	}
	s.clearSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handlePasswordResetPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "password_reset.html", &passwordResetPage{page: s.page(r, w, "Reset password")})
}

func (s *Server) handlePasswordResetSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		s.render(w, r, http.StatusUnprocessableEntity, "password_reset.html", &passwordResetPage{
			page:  s.page(r, w, "Reset password"),
			Error: "Email is required.",
		})
		return
	}

	// Unknown emails get the same response so addresses cannot be probed.
	if err := s.auth.RequestPasswordReset(r.Context(), email); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.flash(w, r, flashInfo, "If that email is registered, a reset link is on its way.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handlePasswordResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.flash(w, r, flashError, "That reset link is invalid.")
		http.Redirect(w, r, "/password-reset", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "password_reset_confirm.html", &passwordResetConfirmPage{
		page:  s.page(r, w, "Choose a new password"),
		Token: token,
	})
}

func (s *Server) handlePasswordResetConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	form := &passwordResetConfirmPage{
		page:  s.page(r, w, "Choose a new password"),
		Token: r.FormValue("token"),
	}
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	if password != confirm {
		form.Error = "Passwords do not match."
		s.render(w, r, http.StatusUnprocessableEntity, "password_reset_confirm.html", form)
		return
	}

	err := s.auth.ResetPassword(r.Context(), form.Token, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenNotFound):
			s.flash(w, r, flashError, "That reset link is invalid or has expired.")
			http.Redirect(w, r, "/password-reset", http.StatusSeeOther)
		case errors.Is(err, authservice.ErrPasswordTooShort),
			errors.Is(err, authservice.ErrPasswordTooWeak):
			form.Error = capitalize(err.Error()) + "."
			s.render(w, r, http.StatusUnprocessableEntity, "password_reset_confirm.html", form)
		default:
			s.serverError(w, r, err)
		}
		return
	}

	s.flash(w, r, flashSuccess, "Password updated. Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.flash(w, r, flashError, "That verification link is invalid.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if _, err := s.auth.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, common.ErrTokenNotFound) {
			s.flash(w, r, flashError, "That verification link is invalid or has expired.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.flash(w, r, flashSuccess, "Email verified, thanks!")
	if userFrom(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if user := userFrom(r.Context()); user != nil {
		email = user.Email
	}
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	result, err := s.auth.ResendVerificationEmail(r.Context(), email)
	if err != nil && !errors.Is(err, common.ErrUserNotFound) {
		s.serverError(w, r, err)
		return
	}
	if result != nil && result.AlreadyVerified {
		s.flash(w, r, flashInfo, "That email is already verified.")
	} else {
		s.flash(w, r, flashInfo, "If that email is registered, a verification link is on its way.")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleOAuthBegin(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	r = r.WithContext(context.WithValue(r.Context(), gothic.ProviderParamKey, provider))
	gothic.BeginAuthHandler(w, r)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	r = r.WithContext(context.WithValue(r.Context(), gothic.ProviderParamKey, provider))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		s.logger.Warn("oauth callback failed",
			slog.String("provider", provider),
			slog.Any("error", err))
		s.flash(w, r, flashError, "Sign-in failed. Please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	result, created, err := s.auth.LoginOrRegisterOAuth(r.Context(), provider, &gothUser, s.sessionMetadata(r))
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setSessionToken(w, r, result.Tokens.RefreshToken)
	if created {
		s.flash(w, r, flashSuccess, "Welcome to Tally!")
	} else {
		s.flash(w, r, flashSuccess, "Welcome back, "+displayName(result.User.DisplayName, result.User.Username)+"!")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "settings.html", &settingsPage{page: s.page(r, w, "Settings")})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	current := r.FormValue("current_password")
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	form := &settingsPage{page: s.page(r, w, "Settings")}
	if password != confirm {
		form.Error = "Passwords do not match."
		s.render(w, r, http.StatusUnprocessableEntity, "settings.html", form)
		return
	}

	err := s.auth.ChangePassword(r.Context(), user.ID, current, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			form.Error = "Current password is incorrect."
		case errors.Is(err, authservice.ErrPasswordTooShort),
			errors.Is(err, authservice.ErrPasswordTooWeak):
			form.Error = capitalize(err.Error()) + "."
		default:
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "settings.html", form)
		return
	}

	// Changing the password revokes every session, this one included.
	s.clearSession(w, r)
	s.flash(w, r, flashSuccess, "Password changed. Please log in again.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func displayName(display, username string) string {
	if display != "" {
		return display
	}
	return username
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
