package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopswift/internal/metrics"
	"github.com/Skotchmaster/shopswift/internal/middleware/csrf"
	"github.com/Skotchmaster/shopswift/internal/middleware/session"
)

const APIPrefix = "/api/v1"

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Deps struct {
	Auth       *AuthHTTP
	Storefront *StorefrontHTTP
	Admin      *AdminHTTP
	Sessions   *session.Manager
	Metrics    *metrics.Metrics
	CSRF       csrf.Config
	Ready      map[string]ReadyCheck
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", ready(d.Ready))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	csrfCfg := d.CSRF
	csrfCfg.SkipPaths = append(csrfCfg.SkipPaths, APIPrefix+"/auth/login", APIPrefix+"/auth/signup")

	api := e.Group(APIPrefix, d.Sessions.Middleware()...)
	api.Use(csrf.Middleware(csrfCfg))

	auth := api.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me, session.RequireUser)

	api.GET("/products", d.Storefront.ListProducts)
	api.GET("/products/search", d.Storefront.SearchProducts)

	cart := api.Group("/cart")
	cart.GET("", d.Storefront.GetCart)
	cart.POST("/items", d.Storefront.AddItem)
	cart.PATCH("/items/:id", d.Storefront.UpdateItem)
	cart.DELETE("/items/:id", d.Storefront.RemoveItem)

	api.POST("/checkout", d.Storefront.PlaceOrder)

	admin := api.Group("/admin", session.RequireAdmin)
	admin.GET("/products", d.Admin.ListProducts)
	admin.POST("/products", d.Admin.CreateProduct)
	admin.PATCH("/products/:id/price", d.Admin.UpdatePrice)
	admin.GET("/orders", d.Admin.ListOrders)
	admin.POST("/orders/:id/actions", d.Admin.OrderAction)
}

func ready(checks map[string]ReadyCheck) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "failed": failed})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
