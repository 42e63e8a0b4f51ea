package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Table{}, &models.Order{}, &models.OrderItem{}))

	return &repo.GormRepo{DB: db}
}

func newTestServices(t *testing.T) (*TableService, *OrderService) {
	t.Helper()

	r := newTestRepo(t)
	locks := keymutex.New()
	return &TableService{Repo: r, Locks: locks}, &OrderService{Repo: r, Locks: locks}
}
