package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/config"
	"github.com/Skotchmaster/shopswift/internal/events"
	"github.com/Skotchmaster/shopswift/internal/hash"
	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type AuthService struct {
	Customers Customers
	Admins    []config.AdminAccount
	Events    events.Emitter
}

type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Login checks the configured admin accounts first; any other login is a
// customer login against the commerce backend.
func (s *AuthService) Login(ctx context.Context, sess state.Session, email, password string) (state.Session, error) {
	email = strings.TrimSpace(email)
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return sess, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if u, ok := s.admin(email, password); ok {
		l.Info("login_successful", "role", u.Role)
		s.Events.Emit(events.TopicUsers, u.ID, events.UserLoggedIn, map[string]any{"user_id": u.ID, "role": u.Role})
		return state.SignIn(sess, u), nil
	}

	u, err := s.Customers.Login(ctx, email, password)
	if err != nil {
		if rejected(err) {
			l.Warn("login_failed", "status", 401, "error", err)
			return sess, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		l.Error("login_failed", "status", 502, "error", err)
		return sess, err
	}

	l.Info("login_successful", "role", u.Role)
	s.Events.Emit(events.TopicUsers, u.ID, events.UserLoggedIn, map[string]any{"user_id": u.ID, "role": u.Role})
	return state.SignIn(sess, u), nil
}

func (s *AuthService) admin(email, password string) (models.User, bool) {
	for _, a := range s.Admins {
		if !strings.EqualFold(a.Email, email) {
			continue
		}
		if !hash.CheckPassword(a.PasswordHash, password) {
			return models.User{}, false
		}
		return models.User{
			ID:        "admin:" + strings.ToLower(a.Email),
			Email:     a.Email,
			FirstName: "Admin",
			Role:      models.RoleAdmin,
		}, true
	}
	return models.User{}, false
}

// rejected reports a backend answer that means the credentials were wrong
// rather than that the backend failed.
func rejected(err error) bool {
	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized
	}
	return false
}

func (s *AuthService) Signup(ctx context.Context, sess state.Session, in SignupInput) (state.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	in.Email = strings.TrimSpace(in.Email)
	if !validEmail(in.Email) {
		return sess, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if in.Password == "" {
		return sess, fmt.Errorf("%w: password is required", ErrValidation)
	}

	u, err := s.Customers.Signup(ctx, commerce.SignupDraft{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	})
	if err != nil {
		if commerce.IsDuplicate(err) {
			l.Warn("signup_failed", "status", 409, "error", err)
			return sess, fmt.Errorf("%w: an account with this email", ErrConflict)
		}
		l.Error("signup_failed", "status", 502, "error", err)
		return sess, err
	}

	l.Info("signup_successful", "user_id", u.ID)
	s.Events.Emit(events.TopicUsers, u.ID, events.UserSignedUp, map[string]any{"user_id": u.ID, "email": u.Email})
	return state.SignIn(sess, u), nil
}

func (s *AuthService) Logout(ctx context.Context, sess state.Session) state.Session {
	if sess.User != nil {
		logging.FromContext(ctx).Info("logout", "user_id", sess.User.ID)
	}
	return state.SignOut(sess)
}
