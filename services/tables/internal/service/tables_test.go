package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/transport"
)

func TestTableService_Create_Defaults(t *testing.T) {
	t.Parallel()

	tables, _ := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 0, 2)
	require.NoError(t, err)

	assert.Equal(t, "T1", table.Name)
	assert.Equal(t, 4, table.Capacity)
	assert.Equal(t, 2, table.Floor)
	assert.Equal(t, models.StatusAvailable, table.Status)
}

func TestTableService_Create_Validation(t *testing.T) {
	t.Parallel()

	tables, _ := newTestServices(t)

	_, err := tables.Create(context.Background(), "", 4, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTableService_Create_DuplicateName(t *testing.T) {
	t.Parallel()

	tables, _ := newTestServices(t)
	ctx := context.Background()

	_, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	_, err = tables.Create(ctx, "T1", 6, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTableService_Get_NotFound(t *testing.T) {
	t.Parallel()

	tables, _ := newTestServices(t)

	_, err := tables.Get(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableService_ListByFloor(t *testing.T) {
	t.Parallel()

	tables, _ := newTestServices(t)
	ctx := context.Background()

	for _, tc := range []struct {
		name  string
		floor int
	}{
		{"T1", 1}, {"T2", 1}, {"T3", 2},
	} {
		_, err := tables.Create(ctx, tc.name, 4, tc.floor)
		require.NoError(t, err)
	}

	grouped, err := tables.ListByFloor(ctx)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Len(t, grouped[1], 2)
	assert.Len(t, grouped[2], 1)
}

func TestTableService_SetStatus(t *testing.T) {
	t.Parallel()

	tables, _ := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	updated, err := tables.SetStatus(ctx, table.ID, models.StatusReserved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReserved, updated.Status)

	_, err = tables.SetStatus(ctx, table.ID, "eating")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTableService_SetStatus_RefusedWithActiveOrder(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	_, err = orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	_, err = tables.SetStatus(ctx, table.ID, models.StatusAvailable)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTableService_Delete_RefusedWhileOccupied(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	err = tables.Delete(ctx, table.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = orders.Complete(ctx, order.ID)
	require.NoError(t, err)

	require.NoError(t, tables.Delete(ctx, table.ID))

	_, err = tables.Get(ctx, table.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
