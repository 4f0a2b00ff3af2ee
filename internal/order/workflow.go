// Package order implements the admin fulfillment workflow over three
// independent axes: order status, payment status and shipment status.
//
// Every action is one-way. A Completed order accepts no further actions.
package order

import (
	"github.com/Skotchmaster/shopswift/internal/models"
)

type Action string

const (
	ActionPayment  Action = "PAYMENT"
	ActionShipment Action = "SHIPMENT"
	ActionDelivery Action = "DELIVERY"
	ActionComplete Action = "COMPLETE"
)

// RemoteAction is one update action understood by the commerce backend.
type RemoteAction struct {
	Action string `json:"action"`
	Field  string `json:"-"`
	Value  string `json:"-"`
}

const (
	remoteChangeOrderState    = "changeOrderState"
	remoteChangeShipmentState = "changeShipmentState"
	remoteChangePaymentState  = "changePaymentState"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionPayment, ActionShipment, ActionDelivery, ActionComplete:
		return a, true
	}
	return "", false
}

func IsCompleted(o models.Order) bool {
	return o.Status == models.OrderCompleted
}

// NextShipmentAction returns the single shipment step offered for the order,
// or false once the shipment is delivered.
func NextShipmentAction(o models.Order) (Action, bool) {
	switch o.ShipmentStatus {
	case models.ShipmentDelivered:
		return "", false
	case models.ShipmentShipped:
		return ActionDelivery, true
	default:
		return ActionShipment, true
	}
}

func Allowed(o models.Order, a Action) bool {
	if IsCompleted(o) {
		return false
	}
	switch a {
	case ActionPayment:
		return o.PaymentStatus != models.PaymentPaid
	case ActionShipment, ActionDelivery:
		next, ok := NextShipmentAction(o)
		return ok && next == a
	case ActionComplete:
		return true
	}
	return false
}

// Available lists the enabled actions in display order.
func Available(o models.Order) []Action {
	out := make([]Action, 0, 3)
	for _, a := range []Action{ActionPayment, ActionShipment, ActionDelivery, ActionComplete} {
		if Allowed(o, a) {
			out = append(out, a)
		}
	}
	return out
}

// Apply returns the transitioned order. A disabled action returns the order
// unchanged and false.
func Apply(o models.Order, a Action) (models.Order, bool) {
	if !Allowed(o, a) {
		return o, false
	}
	switch a {
	case ActionPayment:
		o.PaymentStatus = models.PaymentPaid
	case ActionShipment:
		o.ShipmentStatus = models.ShipmentShipped
	case ActionDelivery:
		o.ShipmentStatus = models.ShipmentDelivered
	case ActionComplete:
		o.Status = models.OrderCompleted
		o.PaymentStatus = models.PaymentPaid
		o.ShipmentStatus = models.ShipmentDelivered
	}
	return o, true
}

// RemoteActions translates an action into the backend update actions.
func RemoteActions(a Action) []RemoteAction {
	switch a {
	case ActionPayment:
		return []RemoteAction{{Action: remoteChangePaymentState, Field: "paymentState", Value: "Paid"}}
	case ActionShipment:
		return []RemoteAction{{Action: remoteChangeShipmentState, Field: "shipmentState", Value: "Shipped"}}
	case ActionDelivery:
		return []RemoteAction{{Action: remoteChangeShipmentState, Field: "shipmentState", Value: "Delivered"}}
	case ActionComplete:
		return []RemoteAction{
			{Action: remoteChangeOrderState, Field: "orderState", Value: "Complete"},
			{Action: remoteChangeShipmentState, Field: "shipmentState", Value: "Delivered"},
			{Action: remoteChangePaymentState, Field: "paymentState", Value: "Paid"},
		}
	}
	return nil
}

// Payload renders the action in the backend's wire shape.
func (r RemoteAction) Payload() map[string]string {
	return map[string]string{"action": r.Action, r.Field: r.Value}
}
