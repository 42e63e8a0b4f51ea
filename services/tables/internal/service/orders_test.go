package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/transport"
)

func TestOrderService_FirstAddOpensOrderAndOccupiesTable(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)
	require.Equal(t, models.StatusAvailable, table.Status)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{MenuItemID: 7, Name: "Pho", Quantity: 2, Price: 50000},
	}, "alice", "no cilantro")
	require.NoError(t, err)

	assert.False(t, order.IsCompleted)
	assert.Equal(t, "alice", order.CreatedBy)
	assert.Equal(t, "no cilantro", order.Notes)
	require.Len(t, order.Items, 1)
	assert.EqualValues(t, 100000, order.Total())

	occupied, err := tables.Get(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOccupied, occupied.Status)
}

func TestOrderService_AddItemsToTable_UnknownTable(t *testing.T) {
	t.Parallel()

	_, orders := newTestServices(t)

	_, err := orders.AddItemsToTable(context.Background(), 99, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_SecondAddReusesActiveOrder(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	first, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	second, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Spring Rolls", Quantity: 1, Price: 30000},
	}, "bob", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice", second.CreatedBy)
	assert.Len(t, second.Items, 2)
}

func TestOrderService_MergeByName(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 2, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	// Same name merges into the existing row and keeps its price.
	order, err = orders.AddItems(ctx, order.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 55000},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.EqualValues(t, 3, order.Items[0].Quantity)
	assert.EqualValues(t, 50000, order.Items[0].Price)
	assert.EqualValues(t, 150000, order.Total())

	order, err = orders.AddItems(ctx, order.ID, []transport.NewOrderItem{
		{Name: "Iced Tea", Quantity: 2, Price: 10000},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.EqualValues(t, 170000, order.Total())
}

func TestOrderService_ConcurrentAddsSameItem(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
				{Name: "Pho", Quantity: 1, Price: 50000},
			}, "alice", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := orders.HistoryByTable(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, history[0].Items, 1)
	assert.EqualValues(t, workers, history[0].Items[0].Quantity)
}

func TestOrderService_Validation(t *testing.T) {
	t.Parallel()

	_, orders := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		items []transport.NewOrderItem
	}{
		{name: "no items", items: nil},
		{name: "missing name", items: []transport.NewOrderItem{{Quantity: 1, Price: 100}}},
		{name: "zero quantity", items: []transport.NewOrderItem{{Name: "Pho", Quantity: 0, Price: 100}}},
		{name: "negative price", items: []transport.NewOrderItem{{Name: "Pho", Quantity: 1, Price: -1}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := orders.AddItemsToTable(ctx, 1, tt.items, "alice", "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestOrderService_Complete_FreesTable(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	done, err := orders.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)

	freed, err := tables.Get(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, freed.Status)
}

func TestOrderService_Complete_Idempotent(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	first, err := orders.Complete(ctx, order.ID)
	require.NoError(t, err)

	second, err := orders.Complete(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsCompleted)
}

func TestOrderService_AddItems_CompletedOrder(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	_, err = orders.Complete(ctx, order.ID)
	require.NoError(t, err)

	_, err = orders.AddItems(ctx, order.ID, []transport.NewOrderItem{
		{Name: "Iced Tea", Quantity: 1, Price: 10000},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_CompletedOrderAllowsNewOrder(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	first, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 1, Price: 50000},
	}, "alice", "")
	require.NoError(t, err)

	_, err = orders.Complete(ctx, first.ID)
	require.NoError(t, err)

	second, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Banh Mi", Quantity: 1, Price: 25000},
	}, "bob", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	history, err := orders.HistoryByTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestOrderService_Total(t *testing.T) {
	t.Parallel()

	tables, orders := newTestServices(t)
	ctx := context.Background()

	table, err := tables.Create(ctx, "T1", 4, 0)
	require.NoError(t, err)

	order, err := orders.AddItemsToTable(ctx, table.ID, []transport.NewOrderItem{
		{Name: "Pho", Quantity: 2, Price: 50000},
		{Name: "Iced Tea", Quantity: 3, Price: 10000},
	}, "alice", "")
	require.NoError(t, err)

	total, err := orders.Total(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 130000, total)
}
