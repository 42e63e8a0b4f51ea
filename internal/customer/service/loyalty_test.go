package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/internal/customer/models"
	"github.com/tuanhng/restaurant-pos/internal/customer/repo"
)

func newTestService(t *testing.T) *LoyaltyService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Customer{}))

	return &LoyaltyService{
		Repo:  &repo.GormRepo{DB: db},
		Locks: keymutex.New(),
	}
}

func TestLoyaltyService_ApplyBill_NewCustomer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	customer, earned, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone:            "0901234567",
		CustomerName:     "Nguyen Van A",
		Total:            150000,
		OriginalTotal:    150000,
		ShouldEarnPoints: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 15, earned)
	assert.Equal(t, "Nguyen Van A", customer.Name)
	assert.Equal(t, 15, customer.LoyaltyPoints)
	assert.EqualValues(t, 150000, customer.TotalSpent)
	assert.Equal(t, 1, customer.VisitCount)
	assert.NotEmpty(t, customer.LastVisit)
}

func TestLoyaltyService_ApplyBill_Accumulates(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone: "0901234567", Total: 150000, OriginalTotal: 150000, ShouldEarnPoints: true,
	})
	require.NoError(t, err)

	customer, earned, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone: "0901234567", Total: 95000, OriginalTotal: 95000, ShouldEarnPoints: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 9, earned)
	assert.Equal(t, 24, customer.LoyaltyPoints)
	assert.EqualValues(t, 245000, customer.TotalSpent)
	assert.Equal(t, 2, customer.VisitCount)
}

func TestLoyaltyService_ApplyBill_RedeemAndClamp(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone: "0901234567", Total: 100000, OriginalTotal: 100000, ShouldEarnPoints: true,
	})
	require.NoError(t, err)

	// Redeeming more than the balance clamps at zero instead of going
	// negative.
	customer, earned, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone:            "0901234567",
		Total:            40000,
		OriginalTotal:    50000,
		PointsUsed:       100,
		ShouldEarnPoints: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, earned)
	assert.Equal(t, 0, customer.LoyaltyPoints)
}

func TestLoyaltyService_ApplyBill_NoEarning(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	customer, earned, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone:         "0901234567",
		Total:         150000,
		OriginalTotal: 150000,
	})
	require.NoError(t, err)

	assert.Zero(t, earned)
	assert.Zero(t, customer.LoyaltyPoints)
	assert.EqualValues(t, 150000, customer.TotalSpent)
	assert.Equal(t, 1, customer.VisitCount)
}

func TestLoyaltyService_ApplyBill_CustomUnit(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	svc.PointsUnit = 50000
	ctx := context.Background()

	_, earned, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone: "0901234567", Total: 150000, OriginalTotal: 150000, ShouldEarnPoints: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, earned)
}

func TestLoyaltyService_ApplyBill_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ApplyBillInput
	}{
		{name: "missing phone", in: ApplyBillInput{Total: 100}},
		{name: "negative total", in: ApplyBillInput{Phone: "0901234567", Total: -1}},
		{name: "negative points used", in: ApplyBillInput{Phone: "0901234567", PointsUsed: -1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := svc.ApplyBill(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestLoyaltyService_ApplyBill_Concurrent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	const visits = 50
	var wg sync.WaitGroup
	for i := 0; i < visits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.ApplyBill(ctx, ApplyBillInput{
				Phone:            "0901234567",
				Total:            20000,
				OriginalTotal:    20000,
				ShouldEarnPoints: true,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	customer, err := svc.GetByPhone(ctx, "0901234567")
	require.NoError(t, err)

	// No increment may be lost.
	assert.Equal(t, visits*2, customer.LoyaltyPoints)
	assert.EqualValues(t, visits*20000, customer.TotalSpent)
	assert.Equal(t, visits, customer.VisitCount)
}

func TestLoyaltyService_SetLoyalty_Overwrites(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.ApplyBill(ctx, ApplyBillInput{
		Phone: "0901234567", Total: 150000, OriginalTotal: 150000, ShouldEarnPoints: true,
	})
	require.NoError(t, err)

	customer, err := svc.SetLoyalty(ctx, SetLoyaltyInput{
		Phone:         "0901234567",
		CustomerName:  "Nguyen Van A",
		LoyaltyPoints: 7,
		TotalSpent:    70000,
		VisitCount:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, customer.LoyaltyPoints)
	assert.EqualValues(t, 70000, customer.TotalSpent)
	assert.Equal(t, 3, customer.VisitCount)
}

func TestLoyaltyService_SetLoyalty_CreatesMissingCustomer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	customer, err := svc.SetLoyalty(ctx, SetLoyaltyInput{
		Phone:         "0909999999",
		LoyaltyPoints: 5,
		TotalSpent:    50000,
		VisitCount:    1,
	})
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)
	assert.Equal(t, 5, customer.LoyaltyPoints)
}

func TestLoyaltyService_Create_DuplicatePhone(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &models.Customer{Name: "A", Phone: "0901234567"}))

	err := svc.Create(ctx, &models.Customer{Name: "B", Phone: "0901234567"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLoyaltyService_GetByPhone_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	_, err := svc.GetByPhone(context.Background(), "0900000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomer_LoyaltyTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		points int
		tier   string
	}{
		{0, "Standard"},
		{49, "Standard"},
		{50, "Bronze"},
		{99, "Bronze"},
		{100, "Silver"},
		{199, "Silver"},
		{200, "Gold"},
		{499, "Gold"},
		{500, "Platinum"},
	}

	for _, tt := range tests {
		c := &models.Customer{LoyaltyPoints: tt.points}
		assert.Equal(t, tt.tier, c.LoyaltyTier(), "points=%d", tt.points)
	}
}
