package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/tuanhng/restaurant-pos/internal/billing/models"
)

const Index = "bills"

// doc is the searchable projection of a bill held in the index.
type doc struct {
	BillID   uint   `json:"bill_id"`
	Customer string `json:"customer"`
	Phone    string `json:"phone"`
	Date     string `json:"date"`
	Total    int64  `json:"total"`
	Notes    string `json:"notes"`
}

func IndexBill(ctx context.Context, es *elasticsearch.Client, bill *models.Bill) error {
	d := doc{
		BillID:   bill.ID,
		Customer: bill.Customer,
		Phone:    bill.Phone,
		Date:     bill.Date,
		Total:    bill.Total,
		Notes:    bill.Notes,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(d); err != nil {
		return fmt.Errorf("encode bill doc: %w", err)
	}

	res, err := es.Index(
		Index,
		&buf,
		es.Index.WithDocumentID(strconv.FormatUint(uint64(bill.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index bill %d: %s", bill.ID, res.Status())
	}
	return nil
}

// Search returns the ids of bills matching the query, best match first.
func Search(ctx context.Context, es *elasticsearch.Client, query string, from, size int) ([]uint, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"customer^2", "phone^2", "notes"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(Index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search bills: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source doc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.Source.BillID)
	}
	return ids, nil
}
