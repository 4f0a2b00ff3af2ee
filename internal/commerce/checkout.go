package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const cartStateOrdered = "Ordered"

var orderNameDisallowed = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Address struct {
	FirstName  string
	LastName   string
	Email      string
	Street     string
	City       string
	PostalCode string
}

type LineDraft struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// OrderDraft is one checkout submission. A non-empty Key makes the
// submission idempotent: the backend cart is created under that key and the
// order number is derived from it, so a retry reuses both.
type OrderDraft struct {
	Key        string
	CustomerID string
	Address    Address
	Lines      []LineDraft
}

type PlacedOrder struct {
	ID          string
	OrderNumber string
	Total       decimal.Decimal
}

type cartPayload struct {
	ID        string            `json:"id"`
	Version   int64             `json:"version"`
	Key       string            `json:"key"`
	CartState string            `json:"cartState"`
	LineItems []json.RawMessage `json:"lineItems"`
}

// OrderNumber is the first line's name stripped to letters and digits (at
// most 15), then the key fragment or the current unix milliseconds.
func OrderNumber(lines []LineDraft, key string, nowMS int64) string {
	name := "Order"
	if len(lines) > 0 {
		name = orderNameDisallowed.ReplaceAllString(lines[0].Name, "")
		if len(name) > 15 {
			name = name[:15]
		}
	}
	suffix := strconv.FormatInt(nowMS, 10)
	if key != "" {
		suffix = strings.ReplaceAll(key, "-", "")
		if len(suffix) > 12 {
			suffix = suffix[:12]
		}
	}
	return name + "-" + suffix
}

func (c *Client) PlaceOrder(ctx context.Context, d OrderDraft) (PlacedOrder, error) {
	cart, reused, err := c.openCart(ctx, d)
	if err != nil {
		return PlacedOrder{}, err
	}

	number := OrderNumber(d.Lines, d.Key, c.Now().UnixMilli())

	if reused && cart.CartState == cartStateOrdered {
		return c.orderByNumber(ctx, number)
	}

	if reused {
		cart, err = c.refreshCart(ctx, cart, d)
		if err != nil {
			return PlacedOrder{}, err
		}
	}

	if len(cart.LineItems) == 0 {
		cart, err = c.addLines(ctx, cart, d.Lines)
		if err != nil {
			return PlacedOrder{}, err
		}
	}

	body := map[string]any{"id": cart.ID, "version": cart.Version, "orderNumber": number}
	var created orderPayload
	if err := c.do(ctx, ScopeAdmin, http.MethodPost, "/orders", nil, body, &created); err != nil {
		if d.Key != "" && IsDuplicate(err) {
			return c.orderByNumber(ctx, number)
		}
		return PlacedOrder{}, err
	}
	return placed(created), nil
}

func (c *Client) openCart(ctx context.Context, d OrderDraft) (cartPayload, bool, error) {
	draft := map[string]any{
		"currency":      defaultCurrency,
		"country":       defaultCountry,
		"customerEmail":   d.Address.Email,
		"shippingAddress": shippingAddress(d.Address),
	}
	if d.Key != "" {
		draft["key"] = d.Key
	}
	if d.CustomerID != "" {
		draft["customerId"] = d.CustomerID
	}

	var cart cartPayload
	err := c.do(ctx, ScopeAdmin, http.MethodPost, "/carts", nil, draft, &cart)
	if err == nil {
		return cart, false, nil
	}
	if d.Key == "" || !IsDuplicate(err) {
		return cartPayload{}, false, err
	}

	if err := c.do(ctx, ScopeAdmin, http.MethodGet, "/carts/key="+url.PathEscape(d.Key), nil, nil, &cart); err != nil {
		return cartPayload{}, false, err
	}
	return cart, true, nil
}

func shippingAddress(a Address) map[string]string {
	return map[string]string{
		"firstName":  a.FirstName,
		"lastName":   a.LastName,
		"streetName": a.Street,
		"city":       a.City,
		"postalCode": a.PostalCode,
		"country":    defaultCountry,
	}
}

// refreshCart rewrites the contact details of a cart reused under the same
// key, so a retry with a corrected form or a newly signed-in customer
// reaches the order.
func (c *Client) refreshCart(ctx context.Context, cart cartPayload, d OrderDraft) (cartPayload, error) {
	req := updateRequest{Version: cart.Version, Actions: []any{
		map[string]any{"action": "setShippingAddress", "address": shippingAddress(d.Address)},
		map[string]any{"action": "setCustomerEmail", "email": d.Address.Email},
	}}
	if d.CustomerID != "" {
		req.Actions = append(req.Actions, map[string]any{"action": "setCustomerId", "customerId": d.CustomerID})
	}

	var updated cartPayload
	if err := c.do(ctx, ScopeAdmin, http.MethodPost, "/carts/"+url.PathEscape(cart.ID), nil, req, &updated); err != nil {
		return cartPayload{}, err
	}
	return updated, nil
}

func (c *Client) addLines(ctx context.Context, cart cartPayload, lines []LineDraft) (cartPayload, error) {
	req := updateRequest{Version: cart.Version, Actions: make([]any, 0, len(lines))}
	for _, l := range lines {
		req.Actions = append(req.Actions, map[string]any{
			"action":    "addLineItem",
			"productId": l.ProductID,
			"variantId": 1,
			"quantity":  l.Quantity,
			"externalPrice": money{
				CurrencyCode: defaultCurrency,
				CentAmount:   ToCents(l.UnitPrice),
			},
		})
	}

	var updated cartPayload
	if err := c.do(ctx, ScopeAdmin, http.MethodPost, "/carts/"+url.PathEscape(cart.ID), nil, req, &updated); err != nil {
		return cartPayload{}, err
	}
	return updated, nil
}

func (c *Client) orderByNumber(ctx context.Context, number string) (PlacedOrder, error) {
	var existing orderPayload
	if err := c.do(ctx, ScopeAdmin, http.MethodGet, "/orders/order-number="+url.PathEscape(number), nil, nil, &existing); err != nil {
		return PlacedOrder{}, err
	}
	return placed(existing), nil
}

func placed(o orderPayload) PlacedOrder {
	number := o.OrderNumber
	if number == "" {
		number = mapOrder(o).OrderNumber
	}
	return PlacedOrder{ID: o.ID, OrderNumber: number, Total: FromCents(o.TotalPrice.CentAmount)}
}
