package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
)

// ActiveOrder returns the table's single open order with its items, or
// gorm.ErrRecordNotFound.
func (r *GormRepo) ActiveOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("table_id = ? AND is_completed = ?", tableID, false).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) HasActiveOrder(ctx context.Context, tableID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("table_id = ? AND is_completed = ?", tableID, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// OpenOrder creates the order and flips the table to occupied in one
// transaction, so creation can never leave an available table with a
// dangling open order.
func (r *GormRepo) OpenOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return tx.Model(&models.Table{}).
			Where("id = ?", order.TableID).
			Update("status", models.StatusOccupied).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("table_id = ?", tableID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MergeItem applies the merge-by-name rule: a same-name row on the order is
// incremented atomically at the storage layer, otherwise the item is
// appended. The existing row's price is kept.
func (r *GormRepo) MergeItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND name = ?", item.OrderID, item.Name).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		return tx.Create(item).Error
	})
}

// SetBillingKey persists the correlation key once; a key already present is
// never overwritten.
func (r *GormRepo) SetBillingKey(ctx context.Context, orderID uint, key string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND (billing_key IS NULL OR billing_key = '')", orderID).
		Update("billing_key", key).Error
}

// FinalizeOrder marks the order completed and frees its table in one
// transaction. Safe to call again for an already-completed order.
func (r *GormRepo) FinalizeOrder(ctx context.Context, orderID, tableID, billID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"is_completed": true}
		if billID != 0 {
			updates["bill_id"] = billID
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&models.Table{}).
			Where("id = ?", tableID).
			Update("status", models.StatusAvailable).Error
	})
}
