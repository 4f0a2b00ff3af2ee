package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/shopswift/internal/logging"
	"github.com/Skotchmaster/shopswift/internal/models"
	"github.com/Skotchmaster/shopswift/internal/search"
	"github.com/Skotchmaster/shopswift/internal/state"
)

type ProductCache interface {
	SaveProducts(ctx context.Context, products []models.Product) error
	LoadProducts(ctx context.Context) ([]models.Product, time.Time, error)
}

type CatalogService struct {
	Products Products
	Cache    ProductCache
	Searcher search.Searcher
}

type Listing struct {
	Products []models.Product `json:"products"`
	Stale    bool             `json:"stale"`
	CachedAt *time.Time       `json:"cached_at,omitempty"`
}

// List fetches the catalog and refreshes the session's product list. When
// the backend fails and a cached listing exists, the cached one is served
// and marked stale.
func (s *CatalogService) List(ctx context.Context, sess state.Session) (state.Session, Listing, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.list")

	products, err := s.Products.ListProducts(ctx)
	if err != nil {
		cached, at, ok := s.cached(ctx)
		if !ok {
			l.Error("list_products_error", "status", 502, "error", err)
			return sess, Listing{}, err
		}
		l.Warn("list_products_stale", "reason", "backend unavailable", "cached_at", at, "error", err)
		s.index(ctx, cached)
		return state.SetProducts(sess, cached), Listing{Products: cached, Stale: true, CachedAt: &at}, nil
	}

	if s.Cache != nil {
		if err := s.Cache.SaveProducts(ctx, products); err != nil {
			l.Warn("product_cache_error", "error", err)
		}
	}
	s.index(ctx, products)

	if products == nil {
		products = []models.Product{}
	}
	return state.SetProducts(sess, products), Listing{Products: products}, nil
}

func (s *CatalogService) index(ctx context.Context, products []models.Product) {
	if s.Searcher == nil {
		return
	}
	if err := s.Searcher.Index(ctx, products); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "error", err)
	}
}

func (s *CatalogService) cached(ctx context.Context) ([]models.Product, time.Time, bool) {
	if s.Cache == nil {
		return nil, time.Time{}, false
	}
	products, at, err := s.Cache.LoadProducts(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("product_cache_error", "error", err)
		return nil, time.Time{}, false
	}
	return products, at, len(products) > 0
}

// Search loads the catalog first when this session has never listed it, so
// the index has something to match.
func (s *CatalogService) Search(ctx context.Context, sess state.Session, query string, page, size int) (state.Session, search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return sess, search.Result{}, fmt.Errorf("%w: query is required", ErrValidation)
	}

	if len(sess.Products) == 0 {
		var err error
		if sess, _, err = s.List(ctx, sess); err != nil {
			return sess, search.Result{}, err
		}
	}

	from, limit := search.Page(page, size)
	res, err := s.Searcher.Search(ctx, query, from, limit)
	if err != nil {
		logging.FromContext(ctx).Error("search_error", "status", 502, "error", err)
		return sess, search.Result{}, err
	}
	return sess, res, nil
}
