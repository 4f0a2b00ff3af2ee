package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/service"
	"github.com/Skotchmaster/shopswift/internal/storage"
)

// httpError maps service and gateway errors to responses. Backend messages
// are passed through unchanged.
func httpError(err error) error {
	var apiErr *commerce.APIError
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, commerce.ErrAuthentication):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication with the commerce backend failed")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error())
	case errors.As(err, &apiErr):
		return echo.NewHTTPError(http.StatusBadGateway, apiErr.Message)
	case errors.Is(err, commerce.ErrUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "commerce backend unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

func sessionUnavailable(err error) error {
	return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable").SetInternal(err)
}
