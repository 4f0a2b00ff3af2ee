package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/order"
)

const OrderListLimit = 20

func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	q := url.Values{
		"limit": {strconv.Itoa(OrderListLimit)},
		"sort":  {"createdAt desc"},
	}

	var res pagedResults[orderPayload]
	if err := c.do(ctx, ScopeAdmin, http.MethodGet, "/orders", q, nil, &res); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(res.Results))
	for _, o := range res.Results {
		out = append(out, mapOrder(o))
	}
	return out, nil
}

// UpdateOrderStatus reads the current version and posts the actions in one
// update request.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, actions []order.RemoteAction) error {
	path := "/orders/" + url.PathEscape(orderID)

	var current versioned
	if err := c.do(ctx, ScopeAdmin, http.MethodGet, path, nil, nil, &current); err != nil {
		return err
	}

	req := updateRequest{Version: current.Version, Actions: make([]any, 0, len(actions))}
	for _, a := range actions {
		req.Actions = append(req.Actions, a.Payload())
	}
	return c.do(ctx, ScopeAdmin, http.MethodPost, path, nil, req, nil)
}
