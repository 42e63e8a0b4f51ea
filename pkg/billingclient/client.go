package billingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the billing service. Bill creation carries an
// Idempotency-Key header so a retry after an unknown outcome cannot
// materialize a second bill.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(billingURL string) *Client {
	return &Client{
		baseURL: billingURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type BillItem struct {
	MenuItemID uint   `json:"menu_item_id"`
	ItemName   string `json:"item_name"`
	Quantity   uint   `json:"quantity"`
	Price      int64  `json:"price"`
}

type CreateBillRequest struct {
	Date           string     `json:"date"`
	Total          int64      `json:"total"`
	OriginalTotal  int64      `json:"original_total"`
	Items          []BillItem `json:"items"`
	Notes          string     `json:"notes"`
	Customer       string     `json:"customer"`
	Phone          string     `json:"phone"`
	CustomerID     uint       `json:"customer_id"`
	PointsUsed     int        `json:"points_used"`
	PointsDiscount int64      `json:"points_discount"`
	TableName      string     `json:"table_name"`
	StaffName      string     `json:"staff_name"`
}

type BillResponse struct {
	ID             uint       `json:"id"`
	Customer       string     `json:"customer"`
	Phone          string     `json:"phone"`
	Date           string     `json:"date"`
	Total          int64      `json:"total"`
	OriginalTotal  int64      `json:"original_total"`
	PointsUsed     int        `json:"points_used"`
	PointsDiscount int64      `json:"points_discount"`
	TableName      string     `json:"table_name"`
	StaffName      string     `json:"staff_name"`
	Notes          string     `json:"notes"`
	Items          []BillItem `json:"items"`
}

func (c *Client) CreateBill(ctx context.Context, idempotencyKey string, bill CreateBillRequest) (*BillResponse, error) {
	body, err := json.Marshal(bill)
	if err != nil {
		return nil, fmt.Errorf("marshal bill: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/bills",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("billing responded %d: %s", resp.StatusCode, msg)
	}

	var result BillResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
