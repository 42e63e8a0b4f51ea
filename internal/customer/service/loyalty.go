package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/internal/customer/models"
	"github.com/tuanhng/restaurant-pos/internal/customer/repo"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
)

// LoyaltyService is the single writer of the loyalty ledger. The
// read-modify-write per phone is serialized through Locks so concurrent
// bills for one customer cannot lose an increment.
type LoyaltyService struct {
	Repo  *repo.GormRepo
	Locks *keymutex.KeyMutex

	// PointsUnit is the spend that earns one point.
	PointsUnit int64
}

func phoneKey(phone string) string {
	return "phone:" + phone
}

type ApplyBillInput struct {
	Phone            string
	CustomerName     string
	Total            int64
	OriginalTotal    int64
	PointsUsed       int
	ShouldEarnPoints bool
}

// ApplyBill folds one realized charge into the ledger: get-or-create by
// phone, earn floor(originalTotal/unit) when earning is on, redeem
// pointsUsed, clamp the balance at zero, bump spend/visits.
func (s *LoyaltyService) ApplyBill(ctx context.Context, in ApplyBillInput) (*models.Customer, int, error) {
	if in.Phone == "" {
		return nil, 0, fmt.Errorf("%w: phone required", ErrValidation)
	}
	if in.Total < 0 || in.OriginalTotal < 0 || in.PointsUsed < 0 {
		return nil, 0, fmt.Errorf("%w: amounts must be >= 0", ErrValidation)
	}

	s.Locks.Lock(phoneKey(in.Phone))
	defer s.Locks.Unlock(phoneKey(in.Phone))

	customer, err := s.getOrCreateLocked(ctx, in.Phone, in.CustomerName)
	if err != nil {
		return nil, 0, err
	}

	if in.CustomerName != "" {
		customer.Name = in.CustomerName
	}

	earned := 0
	if in.ShouldEarnPoints {
		earned = int(in.OriginalTotal / s.unit())
	}

	balance := customer.LoyaltyPoints - in.PointsUsed + earned
	if balance < 0 {
		balance = 0
	}

	customer.LoyaltyPoints = balance
	customer.TotalSpent += in.Total
	customer.VisitCount++
	customer.LastVisit = time.Now().UTC().Format("2006-01-02")

	if err := s.Repo.Save(ctx, customer); err != nil {
		return nil, 0, err
	}
	return customer, earned, nil
}

type SetLoyaltyInput struct {
	Phone         string
	CustomerName  string
	LoyaltyPoints int
	TotalSpent    int64
	VisitCount    int
}

// SetLoyalty overwrites the ledger with values recomputed from the full
// billing history. This is the reconciliation writer; it corrects any drift
// the incremental path accumulated.
func (s *LoyaltyService) SetLoyalty(ctx context.Context, in SetLoyaltyInput) (*models.Customer, error) {
	if in.Phone == "" {
		return nil, fmt.Errorf("%w: phone required", ErrValidation)
	}
	if in.LoyaltyPoints < 0 || in.TotalSpent < 0 || in.VisitCount < 0 {
		return nil, fmt.Errorf("%w: amounts must be >= 0", ErrValidation)
	}

	s.Locks.Lock(phoneKey(in.Phone))
	defer s.Locks.Unlock(phoneKey(in.Phone))

	customer, err := s.getOrCreateLocked(ctx, in.Phone, in.CustomerName)
	if err != nil {
		return nil, err
	}

	if in.CustomerName != "" {
		customer.Name = in.CustomerName
	}
	customer.LoyaltyPoints = in.LoyaltyPoints
	customer.TotalSpent = in.TotalSpent
	customer.VisitCount = in.VisitCount

	if err := s.Repo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *LoyaltyService) getOrCreateLocked(ctx context.Context, phone, name string) (*models.Customer, error) {
	customer, err := s.Repo.GetByPhone(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = &models.Customer{Phone: phone, Name: name}
	if err := s.Repo.Create(ctx, customer); err != nil {
		// A racing writer on another phone key cannot get here, but a
		// direct create through the CRUD surface can.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.Repo.GetByPhone(ctx, phone)
		}
		return nil, err
	}
	return customer, nil
}

func (s *LoyaltyService) unit() int64 {
	if s.PointsUnit <= 0 {
		return 10000
	}
	return s.PointsUnit
}

func (s *LoyaltyService) Create(ctx context.Context, customer *models.Customer) error {
	if customer.Phone == "" {
		return fmt.Errorf("%w: phone required", ErrValidation)
	}
	if err := s.Repo.Create(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: phone %s already registered", ErrConflict, customer.Phone)
		}
		return err
	}
	return nil
}

func (s *LoyaltyService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.Repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}
	return customer, err
}

func (s *LoyaltyService) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone required", ErrValidation)
	}
	customer, err := s.Repo.GetByPhone(ctx, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: phone %s", ErrNotFound, phone)
	}
	return customer, err
}

func (s *LoyaltyService) List(ctx context.Context, limit, offset int) ([]models.Customer, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *LoyaltyService) Top(ctx context.Context, limit int) ([]models.Customer, error) {
	return s.Repo.Top(ctx, limit)
}
