package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/shopswift/internal/models"
)

type Elastic struct {
	ES        *elasticsearch.Client
	IndexName string
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

// NewElastic connects and checks the cluster answers before returning.
func NewElastic(cfg ElasticConfig, log *slog.Logger) (*Elastic, error) {
	log.Info("es_connect", "url", cfg.URL, "index", cfg.Index)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error %s: %s", res.Status(), body)
	}

	return &Elastic{ES: client, IndexName: cfg.Index}, nil
}

// Index upserts every product by id with a single bulk request.
func (e *Elastic) Index(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		meta := map[string]any{"index": map[string]any{"_index": e.IndexName, "_id": p.ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("bulk encode: %w", err)
		}
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("bulk encode: %w", err)
		}
	}

	res, err := e.ES.Bulk(&buf,
		e.ES.Bulk.WithContext(ctx),
		e.ES.Bulk.WithIndex(e.IndexName),
		e.ES.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.Status())
	}

	var r struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return fmt.Errorf("bulk response: %w", err)
	}
	if r.Errors {
		return fmt.Errorf("bulk index: some documents were rejected")
	}
	return nil
}

func (e *Elastic) Search(ctx context.Context, query string, from, size int) (Result, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description", "sku"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, fmt.Errorf("search encode: %w", err)
	}

	res, err := e.ES.Search(
		e.ES.Search.WithContext(ctx),
		e.ES.Search.WithIndex(e.IndexName),
		e.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{}, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("search response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return Result{Total: r.Hits.Total.Value, Products: prods}, nil
}
