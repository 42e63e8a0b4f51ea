package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) CreateTable(ctx context.Context, table *models.Table) error {
	return r.DB.WithContext(ctx).Create(table).Error
}

func (r *GormRepo) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := r.DB.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *GormRepo) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := r.DB.WithContext(ctx).Order("floor ASC, name ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *GormRepo) UpdateTableStatus(ctx context.Context, id uint, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteTable(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Table{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
