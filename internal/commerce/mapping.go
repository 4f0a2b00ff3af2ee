package commerce

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/models"
)

const (
	PlaceholderImage = "https://via.placeholder.com/300"
	defaultSKU       = "NO-SKU"
	unknownName      = "Unknown Product"
	defaultCurrency  = "USD"
	defaultCountry   = "US"
)

type money struct {
	CurrencyCode string `json:"currencyCode"`
	CentAmount   int64  `json:"centAmount"`
}

type price struct {
	Value   money  `json:"value"`
	Country string `json:"country,omitempty"`
}

type dimensions struct {
	W int `json:"w"`
	H int `json:"h"`
}

type image struct {
	URL        string      `json:"url"`
	Dimensions *dimensions `json:"dimensions,omitempty"`
}

type variant struct {
	ID     int     `json:"id,omitempty"`
	SKU    string  `json:"sku,omitempty"`
	Prices []price `json:"prices,omitempty"`
	Images []image `json:"images,omitempty"`
}

type localized map[string]string

type productData struct {
	Name          localized `json:"name"`
	Description   localized `json:"description"`
	MasterVariant *variant  `json:"masterVariant"`
}

// productPayload covers both product projections (flat) and products
// (nested under masterData).
type productPayload struct {
	ID            string    `json:"id"`
	Version       int64     `json:"version"`
	Name          localized `json:"name"`
	Description   localized `json:"description"`
	MasterVariant *variant  `json:"masterVariant"`
	MasterData    *struct {
		Current *productData `json:"current"`
		Staged  *productData `json:"staged"`
	} `json:"masterData"`
}

type pagedResults[T any] struct {
	Results []T `json:"results"`
}

type orderPayload struct {
	ID            string            `json:"id"`
	Version       int64             `json:"version"`
	OrderNumber   string            `json:"orderNumber"`
	TotalPrice    money             `json:"totalPrice"`
	LineItems     []json.RawMessage `json:"lineItems"`
	OrderState    string            `json:"orderState"`
	PaymentState  string            `json:"paymentState"`
	ShipmentState string            `json:"shipmentState"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type customerPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type signInResult struct {
	Customer customerPayload `json:"customer"`
}

// FromCents converts a minor-unit amount to a decimal major-unit amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents rounds half away from zero to whole minor units.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func (p productPayload) data() *productData {
	if p.MasterData == nil {
		return nil
	}
	if p.MasterData.Current != nil && p.MasterData.Current.MasterVariant != nil {
		return p.MasterData.Current
	}
	if p.MasterData.Staged != nil && p.MasterData.Staged.MasterVariant != nil {
		return p.MasterData.Staged
	}
	if p.MasterData.Current != nil {
		return p.MasterData.Current
	}
	return p.MasterData.Staged
}

func mapProduct(p productPayload) models.Product {
	v := p.MasterVariant
	name, desc := p.Name, p.Description
	if d := p.data(); d != nil {
		if v == nil {
			v = d.MasterVariant
		}
		if name == nil {
			name = d.Name
		}
		if desc == nil {
			desc = d.Description
		}
	}
	if v == nil {
		v = &variant{}
	}

	out := models.Product{
		ID:          p.ID,
		Name:        localizedName(name),
		Price:       decimal.Zero,
		Currency:    defaultCurrency,
		ImageURL:    PlaceholderImage,
		SKU:         defaultSKU,
		Description: desc["en"],
	}
	if m, ok := pickPrice(v.Prices); ok {
		out.Price = FromCents(m.CentAmount)
		out.Currency = m.CurrencyCode
	}
	if len(v.Images) > 0 && v.Images[0].URL != "" {
		out.ImageURL = v.Images[0].URL
	}
	if v.SKU != "" {
		out.SKU = v.SKU
	}
	return out
}

func localizedName(l localized) string {
	if n := l["en"]; n != "" {
		return n
	}
	if n := l["en-US"]; n != "" {
		return n
	}
	return unknownName
}

func pickPrice(prices []price) (money, bool) {
	for _, p := range prices {
		if p.Value.CurrencyCode == defaultCurrency {
			return p.Value, true
		}
	}
	if len(prices) > 0 {
		return prices[0].Value, true
	}
	return money{}, false
}

func mapOrder(o orderPayload) models.Order {
	out := models.Order{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Total:          FromCents(o.TotalPrice.CentAmount),
		Items:          len(o.LineItems),
		Status:         models.OrderPending,
		PaymentStatus:  o.PaymentState,
		ShipmentStatus: o.ShipmentState,
		Date:           o.CreatedAt,
	}
	if o.OrderState == "Complete" {
		out.Status = models.OrderCompleted
	}
	if out.PaymentStatus == "" {
		out.PaymentStatus = models.PaymentPending
	}
	if out.ShipmentStatus == "" {
		out.ShipmentStatus = models.ShipmentPending
	}
	if out.OrderNumber == "" {
		out.OrderNumber = o.ID
		if len(o.ID) > 8 {
			out.OrderNumber = o.ID[:8]
		}
	}
	return out
}

func mapCustomer(c customerPayload) models.User {
	return models.User{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      models.RoleCustomer,
	}
}
