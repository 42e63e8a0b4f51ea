package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/billingclient"
	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/pkg/logging"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/repo"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/transport"
)

// BillCreator is the billing surface the orchestrator needs.
type BillCreator interface {
	CreateBill(ctx context.Context, idempotencyKey string, bill billingclient.CreateBillRequest) (*billingclient.BillResponse, error)
}

// FulfillmentService sequences order completion across the billing boundary:
// the bill is materialized first, local state is finalized second. A failed
// or unknown billing outcome leaves the table occupied and the order open so
// the caller can retry; the persisted billing key makes the retry safe.
type FulfillmentService struct {
	Repo    *repo.GormRepo
	Locks   *keymutex.KeyMutex
	Billing BillCreator
}

// CheckoutResult is what a successful completion returns to the caller.
type CheckoutResult struct {
	Bill  *billingclient.BillResponse `json:"bill"`
	Order *models.Order               `json:"order"`
	Table *models.Table               `json:"table"`
}

func (s *FulfillmentService) CompleteAndBill(ctx context.Context, tableID uint, staffName string, req transport.CheckoutRequest) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("table_id", tableID)

	s.Locks.Lock(tableKey(tableID))
	defer s.Locks.Unlock(tableKey(tableID))

	table, err := s.Repo.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: table %d", ErrNotFound, tableID)
		}
		return nil, err
	}

	order, err := s.Repo.ActiveOrder(ctx, tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: table %d has no active order", ErrInvalidState, tableID)
		}
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("%w: order %d has no items", ErrInvalidState, order.ID)
	}

	if req.PointsUsed < 0 || req.PointsDiscount < 0 {
		return nil, fmt.Errorf("%w: points must be >= 0", ErrValidation)
	}

	// The key is persisted before the first attempt and reused on every
	// retry for this order.
	if order.BillingKey == "" {
		key := uuid.NewString()
		if err := s.Repo.SetBillingKey(ctx, order.ID, key); err != nil {
			return nil, err
		}
		order.BillingKey = key
	}

	bill, err := s.Billing.CreateBill(ctx, order.BillingKey, buildBillRequest(table, order, staffName, req))
	if err != nil {
		l.Error("create_bill_failed", "order_id", order.ID, "error", err)
		return nil, fmt.Errorf("%w: create bill: %v", ErrUpstream, err)
	}

	// The bill exists from here on. Finalization is idempotent; a caller
	// retry replays the billing key, gets the same bill back, and lands
	// here again.
	var finalizeErr error
	for attempt := 0; attempt < 3; attempt++ {
		if finalizeErr = s.Repo.FinalizeOrder(ctx, order.ID, tableID, bill.ID); finalizeErr == nil {
			break
		}
	}
	if finalizeErr != nil {
		l.Error("finalize_after_bill_failed", "order_id", order.ID, "bill_id", bill.ID, "error", finalizeErr)
		return nil, fmt.Errorf("bill %d created but local completion failed, retry checkout: %w", bill.ID, finalizeErr)
	}

	l.Info("checkout_complete", "order_id", order.ID, "bill_id", bill.ID, "total", bill.Total)

	completed, err := s.Repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	freed, err := s.Repo.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{Bill: bill, Order: completed, Table: freed}, nil
}

func buildBillRequest(table *models.Table, order *models.Order, staffName string, req transport.CheckoutRequest) billingclient.CreateBillRequest {
	items := make([]billingclient.BillItem, 0, len(order.Items))
	var originalTotal int64
	for i := range order.Items {
		it := order.Items[i]
		originalTotal += it.Subtotal()
		items = append(items, billingclient.BillItem{
			MenuItemID: it.MenuItemID,
			ItemName:   it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}

	total := originalTotal - req.PointsDiscount
	if total < 0 {
		total = 0
	}

	notes := strings.TrimSpace(fmt.Sprintf("Table: %s. %s", table.Name, order.Notes))

	return billingclient.CreateBillRequest{
		Date:           time.Now().UTC().Format("2006-01-02"),
		Total:          total,
		OriginalTotal:  originalTotal,
		Items:          items,
		Notes:          notes,
		Customer:       req.Customer,
		Phone:          req.Phone,
		CustomerID:     req.CustomerID,
		PointsUsed:     req.PointsUsed,
		PointsDiscount: req.PointsDiscount,
		TableName:      table.Name,
		StaffName:      staffName,
	}
}
