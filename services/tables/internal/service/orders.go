package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/repo"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/transport"
)

// OrderService owns a table's open order: opening, item merging, completion.
type OrderService struct {
	Repo  *repo.GormRepo
	Locks *keymutex.KeyMutex
}

// OpenOrGetActive returns the table's open order if present, otherwise
// creates one and flips the table to occupied.
func (s *OrderService) OpenOrGetActive(ctx context.Context, tableID uint, createdBy, notes string) (*models.Order, error) {
	s.Locks.Lock(tableKey(tableID))
	defer s.Locks.Unlock(tableKey(tableID))

	return s.openOrGetActiveLocked(ctx, tableID, createdBy, notes)
}

func (s *OrderService) openOrGetActiveLocked(ctx context.Context, tableID uint, createdBy, notes string) (*models.Order, error) {
	if _, err := s.Repo.GetTable(ctx, tableID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: table %d", ErrNotFound, tableID)
		}
		return nil, err
	}

	order, err := s.Repo.ActiveOrder(ctx, tableID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	order = &models.Order{
		TableID:   tableID,
		CreatedBy: createdBy,
		Notes:     notes,
	}
	if err := s.Repo.OpenOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AddItemsToTable opens the table's order when none is active yet (first
// item-add and order-open are the same event) and merges the items in.
func (s *OrderService) AddItemsToTable(ctx context.Context, tableID uint, items []transport.NewOrderItem, createdBy, notes string) (*models.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	s.Locks.Lock(tableKey(tableID))
	defer s.Locks.Unlock(tableKey(tableID))

	order, err := s.openOrGetActiveLocked(ctx, tableID, createdBy, notes)
	if err != nil {
		return nil, err
	}
	return s.mergeItems(ctx, order, items)
}

// AddItems merges items into an open order. Fails NotFound when the order is
// missing or already completed.
func (s *OrderService) AddItems(ctx context.Context, orderID uint, items []transport.NewOrderItem) (*models.Order, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.Locks.Lock(tableKey(order.TableID))
	defer s.Locks.Unlock(tableKey(order.TableID))

	// Re-read under the lock: a concurrent checkout may have completed the
	// order between the lookup and the lock.
	order, err = s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsCompleted {
		return nil, fmt.Errorf("%w: order %d is completed", ErrNotFound, orderID)
	}
	return s.mergeItems(ctx, order, items)
}

func (s *OrderService) mergeItems(ctx context.Context, order *models.Order, items []transport.NewOrderItem) (*models.Order, error) {
	for _, in := range items {
		item := models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: in.MenuItemID,
			Name:       in.Name,
			Quantity:   in.Quantity,
			Price:      in.Price,
			Notes:      in.Notes,
		}
		if err := s.Repo.MergeItem(ctx, &item); err != nil {
			return nil, err
		}
	}
	return s.Repo.GetOrder(ctx, order.ID)
}

func validateItems(items []transport.NewOrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	for i := range items {
		if items[i].Name == "" {
			return fmt.Errorf("%w: item name required", ErrValidation)
		}
		if items[i].Quantity == 0 {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if items[i].Price < 0 {
			return fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
	}
	return nil
}

// Complete flips the completion flag and frees the table. Completing an
// already-completed order is a no-op returning the same snapshot, which
// makes orchestrator retries safe.
func (s *OrderService) Complete(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.Locks.Lock(tableKey(order.TableID))
	defer s.Locks.Unlock(tableKey(order.TableID))

	order, err = s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsCompleted {
		return order, nil
	}

	if err := s.Repo.FinalizeOrder(ctx, order.ID, order.TableID, 0); err != nil {
		return nil, err
	}
	return s.Repo.GetOrder(ctx, orderID)
}

func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.get(ctx, orderID)
}

func (s *OrderService) Total(ctx context.Context, orderID uint) (int64, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return order.Total(), nil
}

func (s *OrderService) HistoryByTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	return s.Repo.ListOrdersByTable(ctx, tableID)
}

func (s *OrderService) get(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return order, err
}
