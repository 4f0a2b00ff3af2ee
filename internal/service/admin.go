package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/events"
	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/order"
	"github.com/Skotchmaster/shopswift/internal/state"
	"github.com/Skotchmaster/shopswift/internal/storage"
)

type AdminService struct {
	Products ProductAdmin
	Orders   Orders
	Images   storage.ImageStore
	Sessions SessionSaver
	Events   events.Emitter
}

type OrderView struct {
	models.Order
	Actions []order.Action `json:"actions"`
}

type Transition struct {
	Order   OrderView `json:"order"`
	Applied bool      `json:"applied"`
}

type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type NewProduct struct {
	Name        string
	Description string
	SKU         string
	Price       string
	ImageURL    string
	Image       *Upload
}

func viewOf(o models.Order) OrderView {
	actions := order.Available(o)
	if actions == nil {
		actions = []order.Action{}
	}
	return OrderView{Order: o, Actions: actions}
}

func viewsOf(orders []models.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, viewOf(o))
	}
	return out
}

func (s *AdminService) ListOrders(ctx context.Context, sess state.Session) (state.Session, []OrderView, error) {
	orders, err := s.Orders.ListOrders(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_orders_error", "status", 502, "error", err)
		return sess, nil, err
	}
	sess = state.SetOrders(sess, orders)
	return sess, viewsOf(sess.Orders), nil
}

// TransitionOrder applies an admin action to one order. The local order list
// is updated and saved before the backend is called; if the backend rejects
// the update, the list is replaced by a fresh fetch and the backend error is
// returned. A disabled action changes nothing.
func (s *AdminService) TransitionOrder(ctx context.Context, sess state.Session, orderID, action string) (state.Session, Transition, error) {
	l := logging.FromContext(ctx).With("svc", "admin.transition", "order_id", orderID, "action", action)

	a, ok := order.ParseAction(action)
	if !ok {
		return sess, Transition{}, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	current, ok := state.FindOrder(sess, orderID)
	if !ok {
		return sess, Transition{}, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}

	next, applied := order.Apply(current, a)
	if !applied {
		l.Info("transition_skipped", "reason", "action not available")
		return sess, Transition{Order: viewOf(current)}, nil
	}

	sess = state.ReplaceOrder(sess, next)
	if s.Sessions != nil {
		if err := s.Sessions.Save(ctx, sess); err != nil {
			l.Warn("session_save_error", "error", err)
		}
	}

	if err := s.Orders.UpdateOrderStatus(ctx, orderID, order.RemoteActions(a)); err != nil {
		l.Error("transition_error", "status", 502, "error", err)
		if orders, ferr := s.Orders.ListOrders(ctx); ferr == nil {
			sess = state.SetOrders(sess, orders)
		} else {
			l.Warn("refetch_orders_error", "error", ferr)
			sess = state.ReplaceOrder(sess, current)
		}
		return sess, Transition{}, err
	}

	l.Info("transition_applied", "status", next.Status, "payment_status", next.PaymentStatus, "shipment_status", next.ShipmentStatus)
	s.Events.Emit(events.TopicOrders, orderID, events.OrderStatusChanged, map[string]any{
		"order_id":        orderID,
		"action":          a,
		"status":          next.Status,
		"payment_status":  next.PaymentStatus,
		"shipment_status": next.ShipmentStatus,
	})

	if orders, err := s.Orders.ListOrders(ctx); err == nil {
		sess = state.SetOrders(sess, orders)
		if fresh, ok := state.FindOrder(sess, orderID); ok {
			next = fresh
		}
	} else {
		l.Warn("refetch_orders_error", "error", err)
	}
	return sess, Transition{Order: viewOf(next), Applied: true}, nil
}

func (s *AdminService) ListProducts(ctx context.Context, sess state.Session) (state.Session, []models.Product, error) {
	products, err := s.Products.ListProducts(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_products_error", "status", 502, "error", err)
		return sess, nil, err
	}
	sess = state.SetProducts(sess, products)
	return sess, sess.Products, nil
}

// CreateProduct uploads the image when one is attached, otherwise it uses
// the given image URL as is.
func (s *AdminService) CreateProduct(ctx context.Context, sess state.Session, in NewProduct) (state.Session, models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "admin.create_product")

	name := strings.TrimSpace(in.Name)
	sku := strings.TrimSpace(in.SKU)
	if name == "" || sku == "" {
		return sess, models.Product{}, fmt.Errorf("%w: name and sku are required", ErrValidation)
	}
	price, ok := positivePrice(in.Price)
	if !ok {
		return sess, models.Product{}, fmt.Errorf("%w: price must be a positive amount", ErrValidation)
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if in.Image != nil {
		if s.Images == nil {
			return sess, models.Product{}, fmt.Errorf("%w: image upload is not configured, send image_url", ErrValidation)
		}
		url, err := s.Images.Upload(ctx, in.Image.Filename, in.Image.ContentType, in.Image.Body)
		if err != nil {
			l.Error("image_upload_error", "error", err)
			return sess, models.Product{}, fmt.Errorf("image upload: %w", err)
		}
		imageURL = url
	}
	if imageURL == "" {
		imageURL = commerce.PlaceholderImage
	}

	p, err := s.Products.CreateProduct(ctx, commerce.ProductDraft{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		SKU:         sku,
		Price:       price,
		ImageURL:    imageURL,
	})
	if err != nil {
		l.Error("create_product_error", "status", 502, "error", err)
		return sess, models.Product{}, err
	}

	l.Info("product_created", "product_id", p.ID)
	s.Events.Emit(events.TopicProducts, p.ID, events.ProductCreated, map[string]any{
		"product_id": p.ID,
		"name":       p.Name,
		"price":      p.Price,
	})
	return state.AddProduct(sess, p), p, nil
}

// UpdatePrice changes the local product list only after the backend
// accepted the new price.
func (s *AdminService) UpdatePrice(ctx context.Context, sess state.Session, productID, value string) (state.Session, error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_price", "product_id", productID)

	price, ok := positivePrice(value)
	if !ok {
		return sess, fmt.Errorf("%w: price must be a positive amount", ErrValidation)
	}

	if err := s.Products.UpdateProductPrice(ctx, productID, price); err != nil {
		l.Error("update_price_error", "status", 502, "error", err)
		return sess, err
	}

	l.Info("price_updated", "price", price.StringFixed(2))
	s.Events.Emit(events.TopicProducts, productID, events.ProductPriceUpdated, map[string]any{
		"product_id": productID,
		"price":      price,
	})
	return state.SetProductPrice(sess, productID, price), nil
}
