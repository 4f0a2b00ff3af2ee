package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/events"
	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/notify"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type CheckoutService struct {
	Orders   OrderPlacer
	Notifier notify.Notifier
	Events   events.Emitter
	NewKey   func() string
}

type CheckoutForm struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type Receipt struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
}

func (f CheckoutForm) trimmed() CheckoutForm {
	return CheckoutForm{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Email:      strings.TrimSpace(f.Email),
		Street:     strings.TrimSpace(f.Street),
		City:       strings.TrimSpace(f.City),
		PostalCode: strings.TrimSpace(f.PostalCode),
	}
}

func (f CheckoutForm) validate() error {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"email", f.Email},
		{"street", f.Street},
		{"city", f.City},
		{"postal_code", f.PostalCode},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !validEmail(f.Email) {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

// Checkout submits the session cart as an order. The returned session must
// be saved even when an error is returned: it carries the checkout key that
// makes a retry reuse the same remote cart and order number. A failed
// submission keeps the cart.
func (s *CheckoutService) Checkout(ctx context.Context, sess state.Session, form CheckoutForm) (state.Session, Receipt, error) {
	l := logging.FromContext(ctx).With("svc", "checkout")

	if sess.Cart.IsEmpty() {
		return sess, Receipt{}, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	form = form.trimmed()
	if err := form.validate(); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return sess, Receipt{}, err
	}

	newKey := s.NewKey
	if newKey == nil {
		newKey = uuid.NewString
	}
	sess = state.BeginCheckout(sess, newKey)

	draft := commerce.OrderDraft{
		Key: sess.CheckoutKey,
		Address: commerce.Address{
			FirstName:  form.FirstName,
			LastName:   form.LastName,
			Email:      form.Email,
			Street:     form.Street,
			City:       form.City,
			PostalCode: form.PostalCode,
		},
	}
	if sess.User != nil && sess.User.Role == models.RoleCustomer {
		draft.CustomerID = sess.User.ID
	}
	items := make([]notify.Item, 0, len(sess.Cart.Items))
	for _, it := range sess.Cart.Items {
		draft.Lines = append(draft.Lines, commerce.LineDraft{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
		})
		items = append(items, notify.Item{ID: it.Product.ID, Name: it.Product.Name, Qty: it.Quantity})
	}

	placed, err := s.Orders.PlaceOrder(ctx, draft)
	if err != nil {
		l.Error("checkout_error", "status", 502, "checkout_key", sess.CheckoutKey, "error", err)
		return sess, Receipt{}, err
	}

	l.Info("order_placed", "order_id", placed.ID, "order_number", placed.OrderNumber)

	s.Notifier.Dispatch(notify.OrderPlaced{
		OrderID:       placed.ID,
		OrderNumber:   placed.OrderNumber,
		CustomerEmail: form.Email,
		TotalAmount:   placed.Total,
		Items:         items,
	})
	s.Events.Emit(events.TopicOrders, placed.ID, events.OrderPlaced, map[string]any{
		"order_id":     placed.ID,
		"order_number": placed.OrderNumber,
		"total":        placed.Total,
		"items":        items,
	})

	return state.CheckoutSucceeded(sess), Receipt{OrderID: placed.ID, OrderNumber: placed.OrderNumber, Total: placed.Total}, nil
}
