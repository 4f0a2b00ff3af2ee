// Package state holds the per-session application state and the reducers that
// produce new states from old ones. Reducers never mutate their input.
package state

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/cart"
	"github.com/Skotchmaster/shopswift/internal/models"
)

type Session struct {
	ID          string           `json:"id"`
	User        *models.User     `json:"user,omitempty"`
	Cart        cart.Cart        `json:"cart"`
	Products    []models.Product `json:"products,omitempty"`
	Orders      []models.Order   `json:"orders,omitempty"`
	CheckoutKey string           `json:"checkout_key,omitempty"`
}

func New(id string) Session {
	return Session{ID: id}
}

func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

func SignIn(s Session, u models.User) Session {
	s.User = &u
	s.Orders = nil
	return s
}

// SignOut drops the user together with the cart.
func SignOut(s Session) Session {
	s.User = nil
	s.Cart = cart.Cart{}
	s.Orders = nil
	s.CheckoutKey = ""
	return s
}

// WithCart replaces the cart. Any change to the cart contents starts a new
// checkout attempt, so the pending checkout key is dropped.
func WithCart(s Session, c cart.Cart) Session {
	s.Cart = c
	s.CheckoutKey = ""
	return s
}

// BeginCheckout keeps an existing key so a retried submission reuses it.
func BeginCheckout(s Session, newKey func() string) Session {
	if s.CheckoutKey == "" {
		s.CheckoutKey = newKey()
	}
	return s
}

func CheckoutSucceeded(s Session) Session {
	s.Cart = cart.Cart{}
	s.CheckoutKey = ""
	return s
}

func SetProducts(s Session, products []models.Product) Session {
	s.Products = append([]models.Product(nil), products...)
	return s
}

// AddProduct puts a newly created product at the head of the list.
func AddProduct(s Session, p models.Product) Session {
	out := make([]models.Product, 0, len(s.Products)+1)
	out = append(out, p)
	for _, existing := range s.Products {
		if existing.ID != p.ID {
			out = append(out, existing)
		}
	}
	s.Products = out
	return s
}

func SetProductPrice(s Session, productID string, price decimal.Decimal) Session {
	out := append([]models.Product(nil), s.Products...)
	for i := range out {
		if out[i].ID == productID {
			out[i].Price = price
		}
	}
	s.Products = out
	return s
}

func FindProduct(s Session, productID string) (models.Product, bool) {
	for _, p := range s.Products {
		if p.ID == productID {
			return p, true
		}
	}
	return models.Product{}, false
}

func SetOrders(s Session, orders []models.Order) Session {
	s.Orders = append([]models.Order(nil), orders...)
	return s
}

func ReplaceOrder(s Session, o models.Order) Session {
	out := append([]models.Order(nil), s.Orders...)
	for i := range out {
		if out[i].ID == o.ID {
			out[i] = o
		}
	}
	s.Orders = out
	return s
}

func FindOrder(s Session, orderID string) (models.Order, bool) {
	for _, o := range s.Orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return models.Order{}, false
}
