// Package repo stores the last successful product listing so the catalog can
// still be served while the commerce backend is unreachable.
package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopswift/internal/models"
)

type CachedProduct struct {
	ID          string    `gorm:"primaryKey"`
	Position    int       `gorm:"not null;index"`
	Name        string    `gorm:"not null"`
	Price       string    `gorm:"not null"`
	Currency    string    `gorm:"not null"`
	ImageURL    string    `gorm:"not null"`
	SKU         string    `gorm:"not null"`
	Description string
	CachedAt    time.Time `gorm:"not null"`
}

func (CachedProduct) TableName() string { return "cached_products" }

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&CachedProduct{})
}

// SaveProducts replaces the cached listing in one transaction.
func (r *GormRepo) SaveProducts(ctx context.Context, products []models.Product) error {
	now := time.Now().UTC()
	rows := make([]CachedProduct, 0, len(products))
	for i, p := range products {
		rows = append(rows, CachedProduct{
			ID:          p.ID,
			Position:    i,
			Name:        p.Name,
			Price:       p.Price.String(),
			Currency:    p.Currency,
			ImageURL:    p.ImageURL,
			SKU:         p.SKU,
			Description: p.Description,
			CachedAt:    now,
		})
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CachedProduct{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// LoadProducts returns the cached listing in its original order and the time
// it was cached. An empty cache returns no products and a zero time.
func (r *GormRepo) LoadProducts(ctx context.Context) ([]models.Product, time.Time, error) {
	var rows []CachedProduct
	if err := r.DB.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, time.Time{}, err
	}

	out := make([]models.Product, 0, len(rows))
	var cachedAt time.Time
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil {
			price = decimal.Zero
		}
		out = append(out, models.Product{
			ID:          row.ID,
			Name:        row.Name,
			Price:       price,
			Currency:    row.Currency,
			ImageURL:    row.ImageURL,
			SKU:         row.SKU,
			Description: row.Description,
		})
		cachedAt = row.CachedAt
	}
	return out, cachedAt, nil
}
