// Package notify sends the order-placed notification to an external webhook.
// Delivery is best effort and never reported back to the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Source          = "shopswift.backend"
	dispatchTimeout = 5 * time.Second
)

type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type OrderPlaced struct {
	Source        string          `json:"source"`
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Items         []Item          `json:"items"`
	Timestamp     time.Time       `json:"timestamp"`
}

// MarshalJSON writes totalAmount as a bare number.
func (n OrderPlaced) MarshalJSON() ([]byte, error) {
	type plain OrderPlaced
	return json.Marshal(struct {
		plain
		TotalAmount json.Number `json:"totalAmount"`
	}{plain: plain(n), TotalAmount: json.Number(n.TotalAmount.String())})
}

type Notifier interface {
	Dispatch(n OrderPlaced)
}

type Webhook struct {
	URL  string
	HTTP *http.Client
	Log  *slog.Logger
	wg   sync.WaitGroup
}

func NewWebhook(url string, log *slog.Logger) *Webhook {
	return &Webhook{URL: url, HTTP: &http.Client{Timeout: dispatchTimeout}, Log: log}
}

// Dispatch posts the notification on its own goroutine.
func (w *Webhook) Dispatch(n OrderPlaced) {
	if n.Source == "" {
		n.Source = Source
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		status, err := w.send(ctx, n)
		if err != nil {
			w.Log.Warn("notify_error", "order_number", n.OrderNumber, "error", err)
			return
		}
		w.Log.Info("notify_sent", "order_number", n.OrderNumber, "status", status)
	}()
}

func (w *Webhook) send(ctx context.Context, n OrderPlaced) (int, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook answered status: %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Wait blocks until every dispatched notification has finished.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

type Nop struct{}

func (Nop) Dispatch(OrderPlaced) {}
