package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tuanhng/restaurant-pos/pkg/billingclient"
	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/pkg/loyaltyclient"

	billinghttp "github.com/tuanhng/restaurant-pos/internal/billing/httpserver"
	billingmodels "github.com/tuanhng/restaurant-pos/internal/billing/models"
	billingrepo "github.com/tuanhng/restaurant-pos/internal/billing/repo"
	billingservice "github.com/tuanhng/restaurant-pos/internal/billing/service"

	customerhttp "github.com/tuanhng/restaurant-pos/internal/customer/httpserver"
	customermodels "github.com/tuanhng/restaurant-pos/internal/customer/models"
	customerrepo "github.com/tuanhng/restaurant-pos/internal/customer/repo"
	customerservice "github.com/tuanhng/restaurant-pos/internal/customer/service"

	tableshttp "github.com/tuanhng/restaurant-pos/services/tables/internal/httpserver"
	tablesmodels "github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	tablesrepo "github.com/tuanhng/restaurant-pos/services/tables/internal/repo"
	tablesservice "github.com/tuanhng/restaurant-pos/services/tables/internal/service"
)

// testEnv hosts the three services on real listeners so the checkout saga
// crosses actual HTTP boundaries.
type testEnv struct {
	tables      *httptest.Server
	billing     *httptest.Server
	customer    *httptest.Server
	billingDown *atomic.Bool
}

func newTestDB(t *testing.T, migrations ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(migrations...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Customer service.
	customerDB := newTestDB(t, &customermodels.Customer{})
	loyaltySvc := &customerservice.LoyaltyService{
		Repo:  &customerrepo.GormRepo{DB: customerDB},
		Locks: keymutex.New(),
	}
	customerEcho := echo.New()
	customerhttp.Register(customerEcho, &customerhttp.Deps{
		CustomersHandler: &customerhttp.CustomersHTTP{Svc: loyaltySvc},
	})
	customerSrv := httptest.NewServer(customerEcho)
	t.Cleanup(customerSrv.Close)

	// Billing service, loyalty notifications go to the real customer server.
	billingDB := newTestDB(t, &billingmodels.Bill{}, &billingmodels.BillItem{})
	billingSvc := &billingservice.BillingService{
		Repo:    &billingrepo.GormRepo{DB: billingDB},
		Loyalty: loyaltyclient.NewClient(customerSrv.URL),
	}
	billingEcho := echo.New()
	billinghttp.Register(billingEcho, &billinghttp.Deps{
		BillsHandler: &billinghttp.BillsHTTP{Svc: billingSvc},
	})

	// The outage switch sits in front of billing so tests can take it down
	// and bring it back on the same address.
	var billingDown atomic.Bool
	billingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if billingDown.Load() {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		billingEcho.ServeHTTP(w, r)
	}))
	t.Cleanup(billingSrv.Close)

	// Tables service, billing calls go to the real billing server.
	tablesDB := newTestDB(t, &tablesmodels.Table{}, &tablesmodels.Order{}, &tablesmodels.OrderItem{})
	tablesRepo := &tablesrepo.GormRepo{DB: tablesDB}
	locks := keymutex.New()
	tablesEcho := echo.New()
	tableshttp.Register(tablesEcho, &tableshttp.Deps{
		TablesHandler: &tableshttp.TablesHTTP{
			Svc: &tablesservice.TableService{Repo: tablesRepo, Locks: locks},
		},
		OrdersHandler: &tableshttp.OrdersHTTP{
			Svc: &tablesservice.OrderService{Repo: tablesRepo, Locks: locks},
			Fulfillment: &tablesservice.FulfillmentService{
				Repo:    tablesRepo,
				Locks:   locks,
				Billing: billingclient.NewClient(billingSrv.URL),
			},
		},
	})
	tablesSrv := httptest.NewServer(tablesEcho)
	t.Cleanup(tablesSrv.Close)

	return &testEnv{
		tables:      tablesSrv,
		billing:     billingSrv,
		customer:    customerSrv,
		billingDown: &billingDown,
	}
}

func doJSON(t *testing.T, method, url string, payload interface{}, out interface{}) int {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-User-Name", "alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createTable(t *testing.T, env *testEnv, name string) tablesmodels.Table {
	t.Helper()

	var table tablesmodels.Table
	code := doJSON(t, http.MethodPost, env.tables.URL+"/tables", map[string]interface{}{
		"name": name, "capacity": 4, "floor": 1,
	}, &table)
	require.Equal(t, http.StatusCreated, code)
	return table
}

func addItems(t *testing.T, env *testEnv, tableID uint, items []map[string]interface{}) tablesmodels.Order {
	t.Helper()

	var order tablesmodels.Order
	code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/tables/%d/items", env.tables.URL, tableID), map[string]interface{}{
		"items": items,
	}, &order)
	require.Equal(t, http.StatusOK, code)
	return order
}

func getTable(t *testing.T, env *testEnv, id uint) tablesmodels.Table {
	t.Helper()

	var table tablesmodels.Table
	code := doJSON(t, http.MethodGet, fmt.Sprintf("%s/tables/%d", env.tables.URL, id), nil, &table)
	require.Equal(t, http.StatusOK, code)
	return table
}

func TestCheckoutSaga(t *testing.T) {
	env := newTestEnv(t)

	// Seat the party.
	table := createTable(t, env, "T1")
	require.Equal(t, tablesmodels.StatusAvailable, table.Status)

	// First items open the order and occupy the table.
	order := addItems(t, env, table.ID, []map[string]interface{}{
		{"menu_item_id": 7, "name": "Pho", "quantity": 2, "price": 50000},
	})
	assert.EqualValues(t, 100000, order.Total())
	assert.Equal(t, tablesmodels.StatusOccupied, getTable(t, env, table.ID).Status)

	// Another Pho merges into the existing line.
	order = addItems(t, env, table.ID, []map[string]interface{}{
		{"name": "Pho", "quantity": 1, "price": 50000},
	})
	require.Len(t, order.Items, 1)
	assert.EqualValues(t, 3, order.Items[0].Quantity)
	assert.EqualValues(t, 150000, order.Total())

	// Checkout crosses both service boundaries.
	var result tablesservice.CheckoutResult
	code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/tables/%d/checkout", env.tables.URL, table.ID), map[string]interface{}{
		"customer": "Nguyen Van A",
		"phone":    "0901234567",
	}, &result)
	require.Equal(t, http.StatusOK, code)

	require.NotNil(t, result.Bill)
	assert.EqualValues(t, 150000, result.Bill.Total)
	assert.Equal(t, "T1", result.Bill.TableName)
	assert.Equal(t, "alice", result.Bill.StaffName)
	assert.True(t, result.Order.IsCompleted)
	assert.Equal(t, tablesmodels.StatusAvailable, result.Table.Status)

	// The bill is queryable in billing.
	var bill billingmodels.Bill
	code = doJSON(t, http.MethodGet, fmt.Sprintf("%s/bills/%d", env.billing.URL, result.Bill.ID), nil, &bill)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 150000, bill.Total)
	require.Len(t, bill.Items, 1)
	assert.Equal(t, "Pho", bill.Items[0].ItemName)

	// The loyalty ledger was seeded synchronously in this topology.
	var customer customermodels.Customer
	code = doJSON(t, http.MethodGet, env.customer.URL+"/customers/by-phone?phone=0901234567", nil, &customer)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 15, customer.LoyaltyPoints)
	assert.EqualValues(t, 150000, customer.TotalSpent)
	assert.Equal(t, 1, customer.VisitCount)
	assert.Equal(t, "Nguyen Van A", customer.Name)
}

func TestCheckoutSaga_BillingOutageAndRetry(t *testing.T) {
	env := newTestEnv(t)

	table := createTable(t, env, "T1")
	addItems(t, env, table.ID, []map[string]interface{}{
		{"name": "Pho", "quantity": 3, "price": 50000},
	})

	env.billingDown.Store(true)

	checkout := func() (int, tablesservice.CheckoutResult) {
		var result tablesservice.CheckoutResult
		code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/tables/%d/checkout", env.tables.URL, table.ID), map[string]interface{}{
			"phone": "0901234567",
		}, &result)
		return code, result
	}

	code, _ := checkout()
	assert.Equal(t, http.StatusBadGateway, code)

	// The failed attempt left everything for the retry.
	assert.Equal(t, tablesmodels.StatusOccupied, getTable(t, env, table.ID).Status)

	env.billingDown.Store(false)

	code, result := checkout()
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 150000, result.Bill.Total)
	assert.Equal(t, tablesmodels.StatusAvailable, getTable(t, env, table.ID).Status)

	// Exactly one bill exists despite the retry.
	var bills []billingmodels.Bill
	code = doJSON(t, http.MethodGet, env.billing.URL+"/bills", nil, &bills)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, bills, 1)
}

func TestBillEditReconcilesLoyalty(t *testing.T) {
	env := newTestEnv(t)

	table := createTable(t, env, "T1")
	addItems(t, env, table.ID, []map[string]interface{}{
		{"name": "Pho", "quantity": 3, "price": 50000},
	})

	var result tablesservice.CheckoutResult
	code := doJSON(t, http.MethodPost, fmt.Sprintf("%s/tables/%d/checkout", env.tables.URL, table.ID), map[string]interface{}{
		"customer": "Nguyen Van A",
		"phone":    "0901234567",
	}, &result)
	require.Equal(t, http.StatusOK, code)

	// Reattribute the bill to a different phone.
	code = doJSON(t, http.MethodPut, fmt.Sprintf("%s/bills/%d", env.billing.URL, result.Bill.ID), map[string]interface{}{
		"customer": "Tran Thi B",
		"phone":    "0907654321",
	}, nil)
	require.Equal(t, http.StatusOK, code)

	// The old phone is zeroed, the new one owns the bill.
	var old customermodels.Customer
	code = doJSON(t, http.MethodGet, env.customer.URL+"/customers/by-phone?phone=0901234567", nil, &old)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, old.LoyaltyPoints)
	assert.EqualValues(t, 0, old.TotalSpent)
	assert.Equal(t, 0, old.VisitCount)

	var next customermodels.Customer
	code = doJSON(t, http.MethodGet, env.customer.URL+"/customers/by-phone?phone=0907654321", nil, &next)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 15, next.LoyaltyPoints)
	assert.EqualValues(t, 150000, next.TotalSpent)
	assert.Equal(t, 1, next.VisitCount)
}
