package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/internal/billing/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) CreateBill(ctx context.Context, bill *models.Bill) error {
	return r.DB.WithContext(ctx).Create(bill).Error
}

func (r *GormRepo) GetBill(ctx context.Context, id uint) (*models.Bill, error) {
	var bill models.Bill
	if err := r.DB.WithContext(ctx).Preload("Items").First(&bill, id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *GormRepo) GetBillByKey(ctx context.Context, key string) (*models.Bill, error) {
	var bill models.Bill
	err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("idempotency_key = ?", key).
		First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

type ListFilter struct {
	FromDate string
	ToDate   string
	Phone    string
	Search   string
	Sort     string
	Skip     int
	Limit    int
}

func (r *GormRepo) ListBills(ctx context.Context, f ListFilter) ([]models.Bill, error) {
	q := r.DB.WithContext(ctx).Model(&models.Bill{}).Preload("Items")

	if f.FromDate != "" {
		q = q.Where("date >= ?", f.FromDate)
	}
	if f.ToDate != "" {
		q = q.Where("date <= ?", f.ToDate)
	}
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("customer LIKE ? OR phone LIKE ?", like, like)
	}

	switch f.Sort {
	case "date_asc":
		q = q.Order("date ASC")
	case "total_desc":
		q = q.Order("total DESC")
	case "total_asc":
		q = q.Order("total ASC")
	default:
		q = q.Order("date DESC")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var bills []models.Bill
	if err := q.Offset(f.Skip).Limit(limit).Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// ListBillsByPhone loads the full billing history for one phone, the input
// of the loyalty recompute.
func (r *GormRepo) ListBillsByPhone(ctx context.Context, phone string) ([]models.Bill, error) {
	var bills []models.Bill
	err := r.DB.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at ASC").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// UpdateBillContact changes the only mutable fields of a bill.
func (r *GormRepo) UpdateBillContact(ctx context.Context, id uint, customer, phone string) error {
	res := r.DB.WithContext(ctx).Model(&models.Bill{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"customer": customer, "phone": phone})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteBill(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&models.BillItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Bill{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type Stats struct {
	Total        int64 `json:"total"`
	TodayBills   int64 `json:"today_bills"`
	TodayRevenue int64 `json:"today_revenue"`
}

func (r *GormRepo) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := r.DB.WithContext(ctx).Model(&models.Bill{}).Count(&s.Total).Error; err != nil {
		return nil, err
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := r.DB.WithContext(ctx).Model(&models.Bill{}).
		Where("date = ?", today).
		Count(&s.TodayBills).Error; err != nil {
		return nil, err
	}

	var revenue struct{ Revenue int64 }
	if err := r.DB.WithContext(ctx).Model(&models.Bill{}).
		Select("COALESCE(SUM(total), 0) AS revenue").
		Where("date = ?", today).
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	s.TodayRevenue = revenue.Revenue

	return &s, nil
}

// MonthlyRevenue returns revenue per month for the given year, index 0 being
// January.
func (r *GormRepo) MonthlyRevenue(ctx context.Context, year int) ([12]int64, error) {
	var months [12]int64

	var rows []struct {
		Date  string
		Total int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Bill{}).
		Select("date, total").
		Where("date >= ? AND date <= ?", yearStart(year), yearEnd(year)).
		Find(&rows).Error
	if err != nil {
		return months, err
	}

	for _, row := range rows {
		t, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		months[int(t.Month())-1] += row.Total
	}
	return months, nil
}

func yearStart(year int) string {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func yearEnd(year int) string {
	return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}
