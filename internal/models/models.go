package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

const (
	OrderPending   = "Pending"
	OrderCompleted = "Completed"

	PaymentPending = "Pending"
	PaymentPaid    = "Paid"

	ShipmentPending   = "Pending"
	ShipmentShipped   = "Shipped"
	ShipmentDelivered = "Delivered"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	ImageURL    string          `json:"image_url"`
	SKU         string          `json:"sku"`
	Description string          `json:"description,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Order struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"order_number"`
	Total          decimal.Decimal `json:"total"`
	Items          int             `json:"items"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	ShipmentStatus string          `json:"shipment_status"`
	Date           time.Time       `json:"date"`
}
