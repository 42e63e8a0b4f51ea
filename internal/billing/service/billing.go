package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/events"
	"github.com/tuanhng/restaurant-pos/pkg/logging"
	"github.com/tuanhng/restaurant-pos/pkg/loyaltyclient"
	"github.com/tuanhng/restaurant-pos/internal/billing/models"
	"github.com/tuanhng/restaurant-pos/internal/billing/repo"
	"github.com/tuanhng/restaurant-pos/internal/billing/search"
	"github.com/tuanhng/restaurant-pos/internal/billing/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

const billEventsTopic = "bill_events"

// LoyaltyNotifier is the customer-service surface billing depends on.
type LoyaltyNotifier interface {
	UpdateFromBill(ctx context.Context, upd loyaltyclient.UpdateFromBillRequest) error
	SetLoyalty(ctx context.Context, set loyaltyclient.SetLoyaltyRequest) error
}

// BillingService creates and serves bills. The loyalty notification, the
// event publish, and the search indexing are all best-effort: a bill is
// never rolled back because a side channel was down.
type BillingService struct {
	Repo     *repo.GormRepo
	Loyalty  LoyaltyNotifier
	Producer events.Publisher
	ES       *elasticsearch.Client

	// PointsUnit is the spend per loyalty point, used by the recompute path.
	PointsUnit int64
}

// CreateBill materializes a bill. A replayed idempotency key returns the
// bill created by the first attempt; created reports whether this call
// stored a new one.
func (s *BillingService) CreateBill(ctx context.Context, idempotencyKey string, req transport.CreateBillRequest) (bill *models.Bill, created bool, err error) {
	if len(req.Items) == 0 {
		return nil, false, fmt.Errorf("%w: items required", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].ItemName == "" {
			return nil, false, fmt.Errorf("%w: item name required", ErrValidation)
		}
		if req.Items[i].Quantity == 0 {
			return nil, false, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if req.Items[i].Price < 0 {
			return nil, false, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
	}
	if req.PointsUsed < 0 || req.PointsDiscount < 0 {
		return nil, false, fmt.Errorf("%w: points must be >= 0", ErrValidation)
	}

	if idempotencyKey != "" {
		existing, err := s.Repo.GetBillByKey(ctx, idempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	items := make([]models.BillItem, 0, len(req.Items))
	var itemsTotal int64
	for _, in := range req.Items {
		items = append(items, models.BillItem{
			MenuItemID: in.MenuItemID,
			ItemName:   in.ItemName,
			Quantity:   in.Quantity,
			Price:      in.Price,
		})
		itemsTotal += int64(in.Quantity) * in.Price
	}

	originalTotal := req.OriginalTotal
	if originalTotal == 0 {
		originalTotal = itemsTotal
	}
	total := originalTotal - req.PointsDiscount
	if total < 0 {
		total = 0
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	bill = &models.Bill{
		Customer:       req.Customer,
		Phone:          req.Phone,
		Date:           date,
		Total:          total,
		OriginalTotal:  originalTotal,
		PointsUsed:     req.PointsUsed,
		PointsDiscount: req.PointsDiscount,
		TableName:      req.TableName,
		StaffName:      req.StaffName,
		CustomerID:     req.CustomerID,
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey,
		Items:          items,
	}

	if err := s.Repo.CreateBill(ctx, bill); err != nil {
		// Two replays of the same key can race past the lookup; the unique
		// index decides, and the loser returns the winner's bill.
		if idempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, getErr := s.Repo.GetBillByKey(ctx, idempotencyKey)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	s.afterCreate(ctx, bill)

	return bill, true, nil
}

// afterCreate runs the best-effort side effects; failures are logged and
// swallowed, the accepted async-consistency gap of the design.
func (s *BillingService) afterCreate(ctx context.Context, bill *models.Bill) {
	l := logging.FromContext(ctx).With("bill_id", bill.ID)

	if bill.Phone != "" && s.Loyalty != nil {
		err := s.Loyalty.UpdateFromBill(ctx, loyaltyclient.UpdateFromBillRequest{
			Phone:            bill.Phone,
			CustomerName:     bill.Customer,
			Total:            bill.Total,
			OriginalTotal:    bill.OriginalTotal,
			PointsUsed:       bill.PointsUsed,
			ShouldEarnPoints: true,
		})
		if err != nil {
			l.Warn("loyalty_update_failed", "phone", bill.Phone, "error", err)
		}
	}

	if s.Producer != nil {
		event := map[string]interface{}{
			"type":    "bill_created",
			"bill_id": bill.ID,
			"phone":   bill.Phone,
			"total":   bill.Total,
			"date":    bill.Date,
		}
		if err := s.Producer.PublishEvent(ctx, billEventsTopic, fmt.Sprint(bill.ID), event); err != nil {
			l.Warn("bill_event_publish_failed", "error", err)
		}
	}

	if s.ES != nil {
		if err := search.IndexBill(ctx, s.ES, bill); err != nil {
			l.Warn("bill_index_failed", "error", err)
		}
	}
}

func (s *BillingService) GetBill(ctx context.Context, id uint) (*models.Bill, error) {
	bill, err := s.Repo.GetBill(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: bill %d", ErrNotFound, id)
	}
	return bill, err
}

func (s *BillingService) ListBills(ctx context.Context, f repo.ListFilter) ([]models.Bill, error) {
	return s.Repo.ListBills(ctx, f)
}

// UpdateBill edits the customer contact on a bill, the only permitted
// post-creation change, and reconciles the loyalty ledger for both the old
// and the new phone.
func (s *BillingService) UpdateBill(ctx context.Context, id uint, req transport.UpdateBillRequest) (*models.Bill, error) {
	existing, err := s.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPhone := existing.Phone

	if err := s.Repo.UpdateBillContact(ctx, id, req.Customer, req.Phone); err != nil {
		return nil, err
	}

	if oldPhone != "" && oldPhone != req.Phone {
		s.recomputeBestEffort(ctx, oldPhone)
	}
	if req.Phone != "" {
		s.recomputeBestEffort(ctx, req.Phone)
	}

	return s.GetBill(ctx, id)
}

func (s *BillingService) DeleteBill(ctx context.Context, id uint) error {
	existing, err := s.GetBill(ctx, id)
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteBill(ctx, id); err != nil {
		return err
	}

	if existing.Phone != "" {
		s.recomputeBestEffort(ctx, existing.Phone)
	}
	return nil
}

func (s *BillingService) recomputeBestEffort(ctx context.Context, phone string) {
	if err := s.RecomputeLoyalty(ctx, phone); err != nil {
		logging.FromContext(ctx).Warn("loyalty_recompute_failed", "phone", phone, "error", err)
	}
}

// RecomputeLoyalty derives the ledger numbers from the full billing history
// of one phone and pushes them as absolute values. This is the
// authoritative reconciliation path; the incremental update-from-bill path
// is a cache warmed from it.
func (s *BillingService) RecomputeLoyalty(ctx context.Context, phone string) error {
	if phone == "" {
		return fmt.Errorf("%w: phone required", ErrValidation)
	}
	if s.Loyalty == nil {
		return fmt.Errorf("customer service not configured")
	}

	bills, err := s.Repo.ListBillsByPhone(ctx, phone)
	if err != nil {
		return err
	}

	unit := s.PointsUnit
	if unit <= 0 {
		unit = 10000
	}

	var (
		totalSpent int64
		points     int
		name       string
	)
	for i := range bills {
		totalSpent += bills[i].Total
		points += int(bills[i].OriginalTotal/unit) - bills[i].PointsUsed
		if bills[i].Customer != "" {
			name = bills[i].Customer
		}
	}
	if points < 0 {
		points = 0
	}

	return s.Loyalty.SetLoyalty(ctx, loyaltyclient.SetLoyaltyRequest{
		Phone:         phone,
		CustomerName:  name,
		LoyaltyPoints: points,
		TotalSpent:    totalSpent,
		VisitCount:    len(bills),
	})
}

func (s *BillingService) Stats(ctx context.Context) (*repo.Stats, error) {
	return s.Repo.Stats(ctx)
}

func (s *BillingService) MonthlyRevenue(ctx context.Context, year int) ([12]int64, error) {
	return s.Repo.MonthlyRevenue(ctx, year)
}

// SearchBills serves full-text search from the index when one is configured
// and falls back to a database scan otherwise.
func (s *BillingService) SearchBills(ctx context.Context, query string, from, size int) ([]models.Bill, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	if size <= 0 {
		size = 20
	}

	if s.ES == nil {
		return s.Repo.ListBills(ctx, repo.ListFilter{Search: query, Skip: from, Limit: size})
	}

	ids, err := search.Search(ctx, s.ES, query, from, size)
	if err != nil {
		return nil, err
	}

	bills := make([]models.Bill, 0, len(ids))
	for _, id := range ids {
		bill, err := s.Repo.GetBill(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		bills = append(bills, *bill)
	}
	return bills, nil
}
