// Package search answers free-text product queries, backed by Elasticsearch
// when configured and by the in-process catalog otherwise.
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/Skotchmaster/shopswift/internal/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Result struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
}

type Searcher interface {
	Index(ctx context.Context, products []models.Product) error
	Search(ctx context.Context, query string, from, size int) (Result, error)
}

// Page turns a 1-based page number and page size into an offset and limit.
func Page(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// Memory matches case-insensitive substrings of name, description and SKU.
type Memory struct {
	mu       sync.RWMutex
	products []models.Product
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Index(_ context.Context, products []models.Product) error {
	m.mu.Lock()
	m.products = append([]models.Product(nil), products...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Search(_ context.Context, query string, from, size int) (Result, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.RLock()
	var hits []models.Product
	for _, p := range m.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.SKU), q) {
			hits = append(hits, p)
		}
	}
	m.mu.RUnlock()

	res := Result{Total: int64(len(hits)), Products: []models.Product{}}
	if from >= len(hits) {
		return res, nil
	}
	end := from + size
	if end > len(hits) {
		end = len(hits)
	}
	res.Products = append(res.Products, hits[from:end]...)
	return res, nil
}
