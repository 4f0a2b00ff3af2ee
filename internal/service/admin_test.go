package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopswift/internal/commerce"
	"github.com/Skotchmaster/shopswift/internal/events"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/order"
	"github.com/Skotchmaster/shopswift/internal/state"
)

func pendingOrder(id string) models.Order {
	return models.Order{
		ID:             id,
		OrderNumber:    "N-" + id,
		Total:          decimal.RequireFromString("10.00"),
		Status:         models.OrderPending,
		PaymentStatus:  models.PaymentPending,
		ShipmentStatus: models.ShipmentPending,
	}
}

type fakeImages struct {
	name, ctype, body string
	err               error
}

func (f *fakeImages) Upload(_ context.Context, filename, contentType string, body io.Reader) (string, error) {
	raw, _ := io.ReadAll(body)
	f.name, f.ctype, f.body = filename, contentType, string(raw)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + filename, nil
}

func newAdmin(b *fakeBackend) (*AdminService, *fakeSaver, *fakeEmitter) {
	saver := &fakeSaver{}
	ev := &fakeEmitter{}
	return &AdminService{Products: b, Orders: b, Images: &fakeImages{}, Sessions: saver, Events: ev}, saver, ev
}

func TestAdminService_ListOrdersWithActions(t *testing.T) {
	t.Parallel()

	done := pendingOrder("o-2")
	done.Status, done.PaymentStatus, done.ShipmentStatus = models.OrderCompleted, models.PaymentPaid, models.ShipmentDelivered
	b := &fakeBackend{orders: []models.Order{pendingOrder("o-1"), done}}
	svc, _, _ := newAdmin(b)

	sess, views, err := svc.ListOrders(context.Background(), state.New("s1"))
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, []order.Action{order.ActionPayment, order.ActionShipment, order.ActionComplete}, views[0].Actions)
	assert.Empty(t, views[1].Actions)
	assert.NotNil(t, views[1].Actions)
	assert.Len(t, sess.Orders, 2)
}

func TestAdminService_TransitionOptimisticThenRemote(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{orders: []models.Order{pendingOrder("o-1")}}
	svc, saver, ev := newAdmin(b)
	sess, _, err := svc.ListOrders(context.Background(), state.New("s1"))
	require.NoError(t, err)

	shipped := pendingOrder("o-1")
	shipped.ShipmentStatus = models.ShipmentShipped
	b.orders = []models.Order{shipped}

	sess, tr, err := svc.TransitionOrder(context.Background(), sess, "o-1", "SHIPMENT")
	require.NoError(t, err)
	assert.True(t, tr.Applied)
	assert.Equal(t, models.ShipmentShipped, tr.Order.ShipmentStatus)
	assert.Equal(t, models.PaymentPending, tr.Order.PaymentStatus)
	assert.Contains(t, tr.Order.Actions, order.ActionDelivery)

	require.Len(t, saver.saved, 1)
	saved, ok := state.FindOrder(saver.saved[0], "o-1")
	require.True(t, ok)
	assert.Equal(t, models.ShipmentShipped, saved.ShipmentStatus, "saved before the remote call")

	assert.Equal(t, order.RemoteActions(order.ActionShipment), b.updates["o-1"])
	assert.Equal(t, []string{events.OrderStatusChanged}, ev.types())

	got, _ := state.FindOrder(sess, "o-1")
	assert.Equal(t, models.ShipmentShipped, got.ShipmentStatus)
}

func TestAdminService_TransitionFailureRefetches(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{orders: []models.Order{pendingOrder("o-1")}}
	svc, _, ev := newAdmin(b)
	sess, _, err := svc.ListOrders(context.Background(), state.New("s1"))
	require.NoError(t, err)

	b.updateErr = &commerce.APIError{Status: http.StatusConflict, Message: "Object has a different version"}
	calls := b.ordersCalls

	sess, _, err = svc.TransitionOrder(context.Background(), sess, "o-1", "COMPLETE")
	require.Error(t, err)
	assert.Equal(t, "Object has a different version", err.Error())
	assert.Equal(t, calls+1, b.ordersCalls)

	got, _ := state.FindOrder(sess, "o-1")
	assert.Equal(t, models.OrderPending, got.Status, "local list replaced by the refetch")
	assert.Empty(t, ev.types())
}

func TestAdminService_TransitionFailureRevertsWhenRefetchFails(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{orders: []models.Order{pendingOrder("o-1")}}
	svc, _, _ := newAdmin(b)
	sess, _, err := svc.ListOrders(context.Background(), state.New("s1"))
	require.NoError(t, err)

	b.updateErr = commerce.ErrUnavailable
	b.ordersErr = commerce.ErrUnavailable

	sess, _, err = svc.TransitionOrder(context.Background(), sess, "o-1", "PAYMENT")
	assert.ErrorIs(t, err, commerce.ErrUnavailable)
	got, _ := state.FindOrder(sess, "o-1")
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
}

func TestAdminService_DisabledActionIsNoop(t *testing.T) {
	t.Parallel()

	done := pendingOrder("o-1")
	done.Status = models.OrderCompleted
	b := &fakeBackend{orders: []models.Order{done}}
	svc, saver, _ := newAdmin(b)
	sess, _, err := svc.ListOrders(context.Background(), state.New("s1"))
	require.NoError(t, err)

	_, tr, err := svc.TransitionOrder(context.Background(), sess, "o-1", "PAYMENT")
	require.NoError(t, err)
	assert.False(t, tr.Applied)
	assert.Empty(t, b.updates)
	assert.Empty(t, saver.saved)
}

func TestAdminService_TransitionErrors(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{orders: []models.Order{pendingOrder("o-1")}}
	svc, _, _ := newAdmin(b)
	sess, _, err := svc.ListOrders(context.Background(), state.New("s1"))
	require.NoError(t, err)

	_, _, err = svc.TransitionOrder(context.Background(), sess, "o-1", "REFUND")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = svc.TransitionOrder(context.Background(), sess, "o-9", "PAYMENT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminService_CreateProductWithUpload(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	svc, _, ev := newAdmin(b)
	images := svc.Images.(*fakeImages)

	sess := state.SetProducts(state.New("s1"), []models.Product{headphones()})
	sess, p, err := svc.CreateProduct(context.Background(), sess, NewProduct{
		Name:  "Desk Lamp",
		SKU:   "LAMP-1",
		Price: "39.5",
		Image: &Upload{Filename: "lamp.png", ContentType: "image/png", Body: strings.NewReader("png")},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", p.ID)
	assert.Equal(t, "png", images.body)

	require.Len(t, b.created, 1)
	assert.Equal(t, "https://cdn.test/lamp.png", b.created[0].ImageURL)
	assert.Equal(t, "39.50", b.created[0].Price.StringFixed(2))

	require.Len(t, sess.Products, 2)
	assert.Equal(t, "new-1", sess.Products[0].ID)
	assert.Equal(t, []string{events.ProductCreated}, ev.types())
}

func TestAdminService_CreateProductImageURLAndValidation(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	svc, _, _ := newAdmin(b)

	_, _, err := svc.CreateProduct(context.Background(), state.New("s1"), NewProduct{Name: "Lamp", SKU: "L", Price: "9.99", ImageURL: "https://img.test/l.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/l.png", b.created[0].ImageURL)

	_, _, err = svc.CreateProduct(context.Background(), state.New("s1"), NewProduct{Name: "Lamp", SKU: "L", Price: "9.99"})
	require.NoError(t, err)
	assert.Equal(t, commerce.PlaceholderImage, b.created[1].ImageURL)

	for _, in := range []NewProduct{
		{SKU: "L", Price: "1"},
		{Name: "Lamp", Price: "1"},
		{Name: "Lamp", SKU: "L", Price: "-1"},
		{Name: "Lamp", SKU: "L", Price: "abc"},
	} {
		_, _, err := svc.CreateProduct(context.Background(), state.New("s1"), in)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Len(t, b.created, 2)

	svc.Images = nil
	_, _, err = svc.CreateProduct(context.Background(), state.New("s1"), NewProduct{Name: "Lamp", SKU: "L", Price: "1", Image: &Upload{Filename: "x.png", Body: strings.NewReader("x")}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminService_CreateProductUploadFailure(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	svc, _, _ := newAdmin(b)
	svc.Images = &fakeImages{err: errors.New("access denied")}

	_, _, err := svc.CreateProduct(context.Background(), state.New("s1"), NewProduct{Name: "Lamp", SKU: "L", Price: "1", Image: &Upload{Filename: "x.png", Body: strings.NewReader("x")}})
	require.Error(t, err)
	assert.Empty(t, b.created)
}

func TestAdminService_UpdatePrice(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	svc, _, ev := newAdmin(b)
	sess := state.SetProducts(state.New("s1"), []models.Product{headphones()})

	sess, err := svc.UpdatePrice(context.Background(), sess, "p-1", "179.00")
	require.NoError(t, err)
	assert.Equal(t, "179.00", sess.Products[0].Price.StringFixed(2))
	assert.Equal(t, "179", b.prices["p-1"].String())
	assert.Equal(t, []string{events.ProductPriceUpdated}, ev.types())

	b.priceErr = &commerce.APIError{Status: http.StatusNotFound, Message: "not found"}
	after, err := svc.UpdatePrice(context.Background(), sess, "p-1", "1.00")
	require.Error(t, err)
	assert.Equal(t, "179.00", after.Products[0].Price.StringFixed(2), "local price unchanged on failure")

	_, err = svc.UpdatePrice(context.Background(), sess, "p-1", "")
	assert.ErrorIs(t, err, ErrValidation)
}
