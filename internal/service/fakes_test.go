package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/hash"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/notify"
	"github.com/Skotchmaster/shopswift/internal/order"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type fakeBackend struct {
	mu sync.Mutex

	user      models.User
	loginErr  error
	signupErr error
	signups   []commerce.SignupDraft

	products    []models.Product
	productsErr error
	created     []commerce.ProductDraft
	priceErr    error
	prices      map[string]decimal.Decimal

	orders       []models.Order
	ordersErr    error
	ordersCalls  int
	updateErr    error
	updates      map[string][]order.RemoteAction
	placeErr     error
	placed       commerce.PlacedOrder
	drafts       []commerce.OrderDraft
	customerHits int
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customerHits++
	return f.user, f.loginErr
}

func (f *fakeBackend) Signup(_ context.Context, d commerce.SignupDraft) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups = append(f.signups, d)
	if f.signupErr != nil {
		return models.User{}, f.signupErr
	}
	return models.User{ID: "cust-new", Email: d.Email, FirstName: d.FirstName, LastName: d.LastName, Role: models.RoleCustomer}, nil
}

func (f *fakeBackend) ListProducts(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, f.productsErr
}

func (f *fakeBackend) CreateProduct(_ context.Context, d commerce.ProductDraft) (models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	return models.Product{ID: "new-1", Name: d.Name, Price: d.Price, Currency: "USD", SKU: d.SKU, ImageURL: d.ImageURL}, nil
}

func (f *fakeBackend) UpdateProductPrice(_ context.Context, id string, p decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.priceErr != nil {
		return f.priceErr
	}
	if f.prices == nil {
		f.prices = map[string]decimal.Decimal{}
	}
	f.prices[id] = p
	return nil
}

func (f *fakeBackend) ListOrders(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls++
	return append([]models.Order(nil), f.orders...), f.ordersErr
}

func (f *fakeBackend) UpdateOrderStatus(_ context.Context, id string, actions []order.RemoteAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[string][]order.RemoteAction{}
	}
	f.updates[id] = actions
	return f.updateErr
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

type emitted struct {
	topic, key, eventType string
	payload               any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) Emit(topic, key, eventType string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{topic, key, eventType, payload})
}

func (f *fakeEmitter) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.eventType)
	}
	return out
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.OrderPlaced
}

func (f *fakeNotifier) Dispatch(n notify.OrderPlaced) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

type fakeCache struct {
	products []models.Product
	at       time.Time
	saved    int
}

func (f *fakeCache) SaveProducts(_ context.Context, p []models.Product) error {
	f.products = append([]models.Product(nil), p...)
	f.at = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.saved++
	return nil
}

func (f *fakeCache) LoadProducts(context.Context) ([]models.Product, time.Time, error) {
	return f.products, f.at, nil
}

type fakeSaver struct {
	saved []state.Session
}

func (f *fakeSaver) Save(_ context.Context, s state.Session) error {
	f.saved = append(f.saved, s)
	return nil
}

func headphones() models.Product {
	return models.Product{ID: "p-1", Name: "Wireless Headphones", Price: decimal.RequireFromString("199.99"), Currency: "USD", SKU: "HP-1"}
}

func watch() models.Product {
	return models.Product{ID: "p-2", Name: "Smart Watch", Price: decimal.RequireFromString("149.50"), Currency: "USD", SKU: "SW-2"}
}

func mustHash(password string) string {
	h, err := hash.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return h
}
