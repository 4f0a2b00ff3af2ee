package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/cart"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type CartService struct {
	TaxRate decimal.Decimal
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CartView struct {
	Items   []CartLine   `json:"items"`
	Summary cart.Summary `json:"summary"`
}

// Add puts one unit of a product from the session's catalog into the cart.
func (s *CartService) Add(sess state.Session, productID string) (state.Session, error) {
	p, ok := state.FindProduct(sess, productID)
	if !ok {
		return sess, fmt.Errorf("%w: product %s is not in the catalog", ErrNotFound, productID)
	}
	return state.WithCart(sess, cart.AddItem(sess.Cart, p)), nil
}

// Update changes an item's quantity by delta. An unknown product leaves
// the session as it was.
func (s *CartService) Update(sess state.Session, productID string, delta int) state.Session {
	if _, ok := sess.Cart.Find(productID); !ok || delta == 0 {
		return sess
	}
	return state.WithCart(sess, cart.UpdateQuantity(sess.Cart, productID, delta))
}

func (s *CartService) Remove(sess state.Session, productID string) state.Session {
	if _, ok := sess.Cart.Find(productID); !ok {
		return sess
	}
	return state.WithCart(sess, cart.Remove(sess.Cart, productID))
}

func (s *CartService) View(sess state.Session) CartView {
	v := CartView{Items: make([]CartLine, 0, len(sess.Cart.Items)), Summary: cart.Summarize(sess.Cart, s.TaxRate)}
	for _, it := range sess.Cart.Items {
		v.Items = append(v.Items, CartLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			ImageURL:  it.Product.ImageURL,
			UnitPrice: it.Product.Price.StringFixed(2),
			Quantity:  it.Quantity,
			LineTotal: cart.LineTotal(it).StringFixed(2),
		})
	}
	return v
}
