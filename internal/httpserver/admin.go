package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/middleware/session"
	"github.com/Skotchmaster/shopswift/internal/service"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type AdminHTTP struct {
	Svc      *service.AdminService
	Sessions *session.Manager
}

func (h *AdminHTTP) commit(c echo.Context, sess state.Session) error {
	if err := h.Sessions.Commit(c, sess); err != nil {
		logging.FromContext(c.Request().Context()).Error("session_save_error", "status", 503, "error", err)
		return sessionUnavailable(err)
	}
	return nil
}

func (h *AdminHTTP) ListProducts(c echo.Context) error {
	sess, products, err := h.Svc.ListProducts(c.Request().Context(), session.Current(c))
	if err != nil {
		return httpError(err)
	}
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// CreateProduct takes a multipart form; the image comes either as the file
// field "image" or as the plain field "image_url".
func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_create_product")

	in := service.NewProduct{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		SKU:         c.FormValue("sku"),
		Price:       c.FormValue("price"),
		ImageURL:    c.FormValue("image_url"),
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			l.Warn("create_product_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable image")
		}
		defer f.Close()
		in.Image = &service.Upload{Filename: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Body: f}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		l.Warn("create_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	sess, p, err := h.Svc.CreateProduct(ctx, session.Current(c), in)
	if err != nil {
		return httpError(err)
	}
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHTTP) UpdatePrice(c echo.Context) error {
	var req struct {
		Price json.Number `json:"price"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be a number")
	}

	sess, err := h.Svc.UpdatePrice(c.Request().Context(), session.Current(c), c.Param("id"), req.Price.String())
	if err != nil {
		return httpError(err)
	}
	if err := h.commit(c, sess); err != nil {
		return err
	}
	resp := echo.Map{"product_id": c.Param("id"), "price": req.Price.String()}
	if p, ok := state.FindProduct(sess, c.Param("id")); ok {
		resp["product"] = p
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	sess, orders, err := h.Svc.ListOrders(c.Request().Context(), session.Current(c))
	if err != nil {
		return httpError(err)
	}
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// OrderAction saves the session on failure too: the order list it carries
// has been refetched.
func (h *AdminHTTP) OrderAction(c echo.Context) error {
	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil || req.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "action is required")
	}

	sess, tr, err := h.Svc.TransitionOrder(c.Request().Context(), session.Current(c), c.Param("id"), req.Action)
	if cerr := h.commit(c, sess); cerr != nil && err == nil {
		return cerr
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tr)
}
