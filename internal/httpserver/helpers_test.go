package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/config"
	"github.com/Skotchmaster/shopswift/internal/events"
	"github.com/Skotchmaster/shopswift/internal/hash"
	"github.com/Skotchmaster/shopswift/internal/metrics"
	"github.com/Skotchmaster/shopswift/internal/middleware/csrf"
	"github.com/Skotchmaster/shopswift/internal/middleware/session"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/notify"
	"github.com/Skotchmaster/shopswift/internal/order"
	"github.com/Skotchmaster/shopswift/internal/search"
	"github.com/Skotchmaster/shopswift/internal/service"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type fakeBackend struct {
	mu       sync.Mutex
	products []models.Product
	orders   []models.Order
	placed   commerce.PlacedOrder
	placeErr error
	drafts   []commerce.OrderDraft
	updates  map[string][]order.RemoteAction
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (models.User, error) {
	if email == "jane@shop.test" {
		return models.User{ID: "cust-1", Email: email, Role: models.RoleCustomer}, nil
	}
	return models.User{}, &commerce.APIError{Status: http.StatusBadRequest, Message: "Account with the given credentials not found."}
}

func (f *fakeBackend) Signup(_ context.Context, d commerce.SignupDraft) (models.User, error) {
	return models.User{ID: "cust-2", Email: d.Email, Role: models.RoleCustomer}, nil
}

func (f *fakeBackend) ListProducts(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Product(nil), f.products...), nil
}

func (f *fakeBackend) CreateProduct(_ context.Context, d commerce.ProductDraft) (models.Product, error) {
	return models.Product{ID: "new-1", Name: d.Name, Price: d.Price, SKU: d.SKU, ImageURL: d.ImageURL, Currency: "USD"}, nil
}

func (f *fakeBackend) UpdateProductPrice(context.Context, string, decimal.Decimal) error {
	return nil
}

func (f *fakeBackend) ListOrders(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Order(nil), f.orders...), nil
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id string, actions []order.RemoteAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string][]order.RemoteAction{}
	}
	f.updates[id] = actions
	return nil
}

func (f *fakeBackend) PlaceOrder(_ context.Context, d commerce.OrderDraft) (commerce.PlacedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	if f.placeErr != nil {
		return commerce.PlacedOrder{}, f.placeErr
	}
	return f.placed, nil
}

type testEnv struct {
	E       *echo.Echo
	Backend *fakeBackend
	Store   *state.MemoryStore
	Deps    *Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	adminHash, err := hash.HashPassword("s3cret")
	require.NoError(t, err)

	b := &fakeBackend{
		products: []models.Product{
			{ID: "p-1", Name: "Wireless Headphones", Price: decimal.RequireFromString("199.99"), Currency: "USD", SKU: "HP-1"},
			{ID: "p-2", Name: "Smart Watch", Price: decimal.RequireFromString("149.50"), Currency: "USD", SKU: "SW-2"},
		},
		orders: []models.Order{{
			ID: "o-1", OrderNumber: "N-1", Total: decimal.RequireFromString("10"),
			Status: models.OrderPending, PaymentStatus: models.PaymentPending, ShipmentStatus: models.ShipmentPending,
		}},
		placed: commerce.PlacedOrder{ID: "o-9", OrderNumber: "WirelessHeadph-abc", Total: decimal.RequireFromString("399.98")},
	}
	store := state.NewMemoryStore(time.Hour)
	sm := session.NewManager(store, []byte("test-secret"), time.Hour, false)

	d := &Deps{
		Auth: &AuthHTTP{
			Svc: &service.AuthService{
				Customers: b,
				Admins:    []config.AdminAccount{{Email: "ops@shop.test", PasswordHash: adminHash}},
				Events:    events.Nop{},
			},
			Sessions: sm,
		},
		Storefront: &StorefrontHTTP{
			Catalog:  &service.CatalogService{Products: b, Searcher: search.NewMemory()},
			Cart:     &service.CartService{TaxRate: decimal.RequireFromString("0.08")},
			Checkout: &service.CheckoutService{Orders: b, Notifier: notify.Nop{}, Events: events.Nop{}},
			Sessions: sm,
		},
		Admin: &AdminHTTP{
			Svc:      &service.AdminService{Products: b, Orders: b, Sessions: store, Events: events.Nop{}},
			Sessions: sm,
		},
		Sessions: sm,
		Metrics:  metrics.New(),
		CSRF:     csrf.DefaultConfig(),
		Ready:    map[string]ReadyCheck{},
	}

	e := echo.New()
	Register(e, d)
	return &testEnv{E: e, Backend: b, Store: store, Deps: d}
}

// agent is a browser stand-in: it keeps cookies between requests and echoes
// the CSRF token back.
type agent struct {
	env     *testEnv
	cookies map[string]*http.Cookie
	noCSRF  bool
}

func (env *testEnv) agent() *agent {
	return &agent{env: env, cookies: map[string]*http.Cookie{}}
}

func (a *agent) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req.Header.Set("Origin", "http://example.com")
	if tok, ok := a.cookies["XSRF-TOKEN"]; ok && !a.noCSRF {
		req.Header.Set("X-CSRF-Token", tok.Value)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.env.E.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(a.cookies, c.Name)
			continue
		}
		a.cookies[c.Name] = c
	}
	return rec
}

func (a *agent) json(method, path string, body any) *httptest.ResponseRecorder {
	if body == nil {
		return a.do(method, path, "", nil)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return a.do(method, path, echo.MIMEApplicationJSON, strings.NewReader(string(raw)))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (a *agent) login(t *testing.T, email, password string) {
	t.Helper()
	rec := a.json(http.MethodPost, APIPrefix+"/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// the first safe request hands out the CSRF cookie
	require.Equal(t, http.StatusOK, a.json(http.MethodGet, APIPrefix+"/cart", nil).Code)
}
