// Package service orchestrates the storefront and admin operations. Every
// operation takes the caller's session state and returns the state to save;
// callers persist it.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/order"
	"github.com/Skotchmaster/shopswift/internal/state"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrConflict           = errors.New("already exists")
)

type Customers interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Signup(ctx context.Context, d commerce.SignupDraft) (models.User, error)
}

type Products interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type ProductAdmin interface {
	Products
	CreateProduct(ctx context.Context, d commerce.ProductDraft) (models.Product, error)
	UpdateProductPrice(ctx context.Context, productID string, price decimal.Decimal) error
}

type Orders interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, actions []order.RemoteAction) error
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, d commerce.OrderDraft) (commerce.PlacedOrder, error)
}

// SessionSaver persists an intermediate state in the middle of an operation.
type SessionSaver interface {
	Save(ctx context.Context, s state.Session) error
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v
}

// positivePrice parses an admin-entered amount.
func positivePrice(v string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
