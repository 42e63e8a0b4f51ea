package loyaltyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the customer service on behalf of billing.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(customerURL string) *Client {
	return &Client{
		baseURL: customerURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type UpdateFromBillRequest struct {
	Phone            string `json:"phone"`
	CustomerName     string `json:"customer_name"`
	Total            int64  `json:"total"`
	OriginalTotal    int64  `json:"original_total"`
	PointsUsed       int    `json:"points_used"`
	ShouldEarnPoints bool   `json:"should_earn_points"`
}

type SetLoyaltyRequest struct {
	Phone         string `json:"phone"`
	CustomerName  string `json:"customer_name"`
	LoyaltyPoints int    `json:"loyalty_points"`
	TotalSpent    int64  `json:"total_spent"`
	VisitCount    int    `json:"visit_count"`
}

// UpdateFromBill applies one realized charge to the ledger (incremental path).
func (c *Client) UpdateFromBill(ctx context.Context, upd UpdateFromBillRequest) error {
	return c.post(ctx, http.MethodPost, "/customers/update-from-bill", upd)
}

// SetLoyalty overwrites the ledger with values recomputed from the full bill
// history (reconciliation path).
func (c *Client) SetLoyalty(ctx context.Context, set SetLoyaltyRequest) error {
	return c.post(ctx, http.MethodPut, "/customers/loyalty", set)
}

func (c *Client) post(ctx context.Context, method, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("customer service responded %d: %s", resp.StatusCode, msg)
	}
	return nil
}
