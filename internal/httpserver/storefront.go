package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/middleware/session"
	"github.com/Skotchmaster/shopswift/internal/service"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type StorefrontHTTP struct {
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Checkout *service.CheckoutService
	Sessions *session.Manager
}

func (h *StorefrontHTTP) commit(c echo.Context, sess state.Session) error {
	if err := h.Sessions.Commit(c, sess); err != nil {
		logging.FromContext(c.Request().Context()).Error("session_save_error", "status", 503, "error", err)
		return sessionUnavailable(err)
	}
	return nil
}

func (h *StorefrontHTTP) ListProducts(c echo.Context) error {
	sess, listing, err := h.Catalog.List(c.Request().Context(), session.Current(c))
	if err != nil {
		return httpError(err)
	}
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listing)
}

func (h *StorefrontHTTP) SearchProducts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	before := len(session.Current(c).Products)
	sess, res, err := h.Catalog.Search(c.Request().Context(), session.Current(c), c.QueryParam("q"), page, size)
	if err != nil {
		return httpError(err)
	}
	if before == 0 {
		if err := h.commit(c, sess); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StorefrontHTTP) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Cart.View(session.Current(c)))
}

func (h *StorefrontHTTP) AddItem(c echo.Context) error {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	sess, err := h.Cart.Add(session.Current(c), req.ProductID)
	if err != nil {
		return httpError(err)
	}
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.Cart.View(sess))
}

func (h *StorefrontHTTP) UpdateItem(c echo.Context) error {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "delta must be an integer")
	}

	sess := h.Cart.Update(session.Current(c), c.Param("id"), req.Delta)
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.Cart.View(sess))
}

func (h *StorefrontHTTP) RemoveItem(c echo.Context) error {
	sess := h.Cart.Remove(session.Current(c), c.Param("id"))
	if err := h.commit(c, sess); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.Cart.View(sess))
}

// PlaceOrder saves the session whatever the outcome so a retry keeps the
// checkout key.
func (h *StorefrontHTTP) PlaceOrder(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "checkout")

	var form service.CheckoutForm
	if err := c.Bind(&form); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, receipt, err := h.Checkout.Checkout(c.Request().Context(), session.Current(c), form)
	if cerr := h.commit(c, sess); cerr != nil && err == nil {
		return cerr
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, receipt)
}
