// Package session ties the signed session cookie to the server-side session
// state and guards routes by the role stored there.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/state"
	"github.com/Skotchmaster/shopswift/internal/tokens"
)

const (
	CookieName = "session"

	ctxClaims  = "session_claims"
	ctxSession = "session_state"
)

type Manager struct {
	Store  state.Store
	Secret []byte
	TTL    time.Duration
	Secure bool
	NewID  func() string
}

func NewManager(store state.Store, secret []byte, ttl time.Duration, secure bool) *Manager {
	return &Manager{Store: store, Secret: secret, TTL: ttl, Secure: secure, NewID: uuid.NewString}
}

// Middleware parses the cookie when present and loads or creates the session.
// A missing, expired or forged cookie yields a fresh guest session.
func (m *Manager) Middleware() []echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + CookieName,
		ContextKey:  ctxClaims,
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			return tokens.SessionClaimsFromToken(auth, m.Secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Debug("session_cookie_ignored", "error", err)
			return nil
		},
		ContinueOnIgnoredError: true,
	})
	return []echo.MiddlewareFunc{parse, m.load}
}

func (m *Manager) load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if claims, ok := c.Get(ctxClaims).(*tokens.SessionClaims); ok && claims.ID != "" {
			s, err := m.Store.Load(ctx, claims.ID)
			switch {
			case err == nil && matches(s, claims):
				c.Set(ctxSession, s)
				return next(c)
			case err != nil && !errors.Is(err, state.ErrSessionNotFound):
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
			}
		}

		s := state.New(m.NewID())
		if err := m.Commit(c, s); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
		}
		return next(c)
	}
}

// matches rejects a cookie whose signed identity disagrees with the stored one.
func matches(s state.Session, claims *tokens.SessionClaims) bool {
	if s.User == nil {
		return claims.Subject == ""
	}
	return s.User.ID == claims.Subject && s.User.Role == claims.Role
}

func Current(c echo.Context) state.Session {
	if s, ok := c.Get(ctxSession).(state.Session); ok {
		return s
	}
	return state.Session{}
}

// Commit saves the session and re-issues the cookie with a renewed expiry.
func (m *Manager) Commit(c echo.Context, s state.Session) error {
	if err := m.Store.Save(c.Request().Context(), s); err != nil {
		return err
	}
	exp := time.Now().Add(m.TTL)
	tok, err := tokens.SignSession(m.Secret, s.ID, s.User, exp)
	if err != nil {
		return err
	}
	c.SetCookie(tokens.CreateCookie(CookieName, tok, "/", exp, m.Secure))
	c.Set(ctxSession, s)
	return nil
}

// Rotate replaces the session id, used on sign-in and sign-out so a session
// id seen before authentication never carries an identity.
func (m *Manager) Rotate(c echo.Context, s state.Session) error {
	old := s.ID
	s.ID = m.NewID()
	if err := m.Commit(c, s); err != nil {
		return err
	}
	if old != "" {
		if err := m.Store.Delete(c.Request().Context(), old); err != nil {
			logging.FromContext(c.Request().Context()).Warn("session_delete_error", "error", err)
		}
	}
	return nil
}

func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Current(c).User == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s := Current(c)
		if s.User == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		if !s.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}
