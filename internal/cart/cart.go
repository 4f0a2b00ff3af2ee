// Package cart holds the cart reducers and money arithmetic. All functions are
// pure: they never mutate their input and never round.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/models"
)

var DefaultTaxRate = decimal.RequireFromString("0.08")

type Item struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Cart keeps items in insertion order with unique product ids.
type Cart struct {
	Items []Item `json:"items"`
}

type Summary struct {
	Count    int    `json:"count"`
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

func (c Cart) clone() Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

func (c Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Find(productID string) (Item, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func AddItem(c Cart, p models.Product) Cart {
	out := c.clone()
	if i := out.index(p.ID); i >= 0 {
		out.Items[i].Quantity++
		return out
	}
	out.Items = append(out.Items, Item{Product: p, Quantity: 1})
	return out
}

// UpdateQuantity adds delta to the item's quantity and drops the item once the
// quantity reaches zero or below. Unknown ids leave the cart unchanged.
func UpdateQuantity(c Cart, productID string, delta int) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	out := c.clone()
	q := out.Items[i].Quantity + delta
	if q <= 0 {
		out.Items = append(out.Items[:i], out.Items[i+1:]...)
		return out
	}
	out.Items[i].Quantity = q
	return out
}

func Remove(c Cart, productID string) Cart {
	if it, ok := c.Find(productID); ok {
		return UpdateQuantity(c, productID, -it.Quantity)
	}
	return c
}

func Count(c Cart) int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func Subtotal(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(LineTotal(it))
	}
	return sum
}

func LineTotal(it Item) decimal.Decimal {
	return it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func Tax(c Cart, rate decimal.Decimal) decimal.Decimal {
	return Subtotal(c).Mul(rate)
}

func Total(c Cart, rate decimal.Decimal) decimal.Decimal {
	return Subtotal(c).Add(Tax(c, rate))
}

func Summarize(c Cart, rate decimal.Decimal) Summary {
	return Summary{
		Count:    Count(c),
		Subtotal: Subtotal(c).StringFixed(2),
		Tax:      Tax(c, rate).StringFixed(2),
		Total:    Total(c, rate).StringFixed(2),
	}
}
