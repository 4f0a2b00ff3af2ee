package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shopswift/internal/models"
)

const ProductListLimit = 20

const genericProductType = "Generic Product"

var slugDisallowed = regexp.MustCompile(`[^a-z0-9]+`)

type ProductDraft struct {
	Name        string
	Description string
	SKU         string
	Price       decimal.Decimal
	Currency    string
	ImageURL    string
}

func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	q := url.Values{"limit": {strconv.Itoa(ProductListLimit)}}

	var res pagedResults[productPayload]
	if err := c.do(ctx, ScopeCustomer, http.MethodGet, "/product-projections", q, nil, &res); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(res.Results))
	for _, p := range res.Results {
		out = append(out, mapProduct(p))
	}
	return out, nil
}

func (c *Client) productTypeID(ctx context.Context) (string, error) {
	var types pagedResults[versioned]
	if err := c.do(ctx, ScopeAdmin, http.MethodGet, "/product-types", url.Values{"limit": {"1"}}, nil, &types); err != nil {
		return "", err
	}
	if len(types.Results) > 0 {
		return types.Results[0].ID, nil
	}

	body := map[string]any{
		"name":        genericProductType,
		"description": "Default product type created by ShopSwift",
		"attributes":  []any{},
	}
	var created versioned
	if err := c.do(ctx, ScopeAdmin, http.MethodPost, "/product-types", nil, body, &created); err != nil {
		return "", fmt.Errorf("failed to create default product type: %w", err)
	}
	return created.ID, nil
}

// Slug lowercases the name and collapses every run of other characters
// into a single dash.
func Slug(name string) string {
	return slugDisallowed.ReplaceAllString(strings.ToLower(name), "-")
}

func (c *Client) CreateProduct(ctx context.Context, d ProductDraft) (models.Product, error) {
	typeID, err := c.productTypeID(ctx)
	if err != nil {
		return models.Product{}, err
	}
	currency := d.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	body := map[string]any{
		"name":        localized{"en": d.Name},
		"slug":        localized{"en": Slug(d.Name) + "-" + strconv.FormatInt(c.Now().UnixMilli(), 10)},
		"productType": map[string]string{"id": typeID, "typeId": "product-type"},
		"description": localized{"en": d.Description},
		"masterVariant": variant{
			SKU: d.SKU,
			Prices: []price{{
				Value:   money{CurrencyCode: currency, CentAmount: ToCents(d.Price)},
				Country: defaultCountry,
			}},
			Images: []image{{URL: d.ImageURL, Dimensions: &dimensions{W: 300, H: 300}}},
		},
	}

	var created productPayload
	if err := c.do(ctx, ScopeAdmin, http.MethodPost, "/products", nil, body, &created); err != nil {
		return models.Product{}, err
	}

	publish := updateRequest{Version: created.Version, Actions: []any{map[string]string{"action": "publish"}}}
	var published productPayload
	if err := c.do(ctx, ScopeAdmin, http.MethodPost, "/products/"+url.PathEscape(created.ID), nil, publish, &published); err != nil {
		return models.Product{}, err
	}
	return mapProduct(published), nil
}

func (c *Client) UpdateProductPrice(ctx context.Context, productID string, newPrice decimal.Decimal) error {
	path := "/products/" + url.PathEscape(productID)

	var current versioned
	if err := c.do(ctx, ScopeAdmin, http.MethodGet, path, nil, nil, &current); err != nil {
		return err
	}

	req := updateRequest{
		Version: current.Version,
		Actions: []any{
			map[string]any{
				"action":    "setPrices",
				"variantId": 1,
				"prices": []price{{
					Value:   money{CurrencyCode: defaultCurrency, CentAmount: ToCents(newPrice)},
					Country: defaultCountry,
				}},
			},
			map[string]string{"action": "publish"},
		},
	}
	return c.do(ctx, ScopeAdmin, http.MethodPost, path, nil, req, nil)
}
