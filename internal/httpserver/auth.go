package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/middleware/session"
	"github.com/Skotchmaster/shopswift/internal/service"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Sessions *session.Manager
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.Login(ctx, session.Current(c), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	if err := h.Sessions.Rotate(c, sess); err != nil {
		l.Error("login_error", "status", 503, "error", err)
		return sessionUnavailable(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":     sess.User,
		"is_admin": sess.IsAdmin(),
	})
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req service.SignupInput
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Svc.Signup(ctx, session.Current(c), req)
	if err != nil {
		return httpError(err)
	}
	if err := h.Sessions.Rotate(c, sess); err != nil {
		l.Error("signup_error", "status", 503, "error", err)
		return sessionUnavailable(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"user": sess.User})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	sess := h.Svc.Logout(ctx, session.Current(c))
	if err := h.Sessions.Rotate(c, sess); err != nil {
		logging.FromContext(ctx).Error("logout_error", "handler", "auth_logout", "status", 503, "error", err)
		return sessionUnavailable(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	sess := session.Current(c)
	return c.JSON(http.StatusOK, echo.Map{
		"user":     sess.User,
		"is_admin": sess.IsAdmin(),
	})
}
