package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/internal/customer/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Create(ctx context.Context, customer *models.Customer) error {
	return r.DB.WithContext(ctx).Create(customer).Error
}

func (r *GormRepo) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *GormRepo) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *GormRepo) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	var customers []models.Customer
	err := r.DB.WithContext(ctx).
		Order("loyalty_points DESC, total_spent DESC").
		Limit(limit).Offset(offset).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormRepo) Top(ctx context.Context, limit int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = 10
	}
	var customers []models.Customer
	err := r.DB.WithContext(ctx).
		Order("loyalty_points DESC").
		Limit(limit).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormRepo) Save(ctx context.Context, customer *models.Customer) error {
	return r.DB.WithContext(ctx).Save(customer).Error
}
