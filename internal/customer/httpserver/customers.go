package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tuanhng/restaurant-pos/pkg/logging"
	"github.com/tuanhng/restaurant-pos/internal/customer/models"
	"github.com/tuanhng/restaurant-pos/internal/customer/service"
	"github.com/tuanhng/restaurant-pos/internal/customer/transport"
)

type CustomersHTTP struct {
	Svc *service.LoyaltyService
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

type customerView struct {
	*models.Customer
	Tier string `json:"tier"`
}

func view(customer *models.Customer) customerView {
	return customerView{Customer: customer, Tier: customer.LoyaltyTier()}
}

// UpdateFromBill is the single mutation entry point billing invokes after a
// bill is materialized.
func (h *CustomersHTTP) UpdateFromBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.update_from_bill")

	var req transport.UpdateFromBillRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_from_bill_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	customer, earned, err := h.Svc.ApplyBill(ctx, service.ApplyBillInput{
		Phone:            req.Phone,
		CustomerName:     req.CustomerName,
		Total:            req.Total,
		OriginalTotal:    req.OriginalTotal,
		PointsUsed:       req.PointsUsed,
		ShouldEarnPoints: req.ShouldEarnPoints,
	})
	if err != nil {
		status := httpStatus(err)
		l.Warn("update_from_bill_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("update_from_bill_success", "phone", req.Phone, "points_added", earned)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"customer":     view(customer),
		"points_added": earned,
	})
}

// SetLoyalty overwrites the ledger with recomputed absolute values.
func (h *CustomersHTTP) SetLoyalty(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.set_loyalty")

	var req transport.SetLoyaltyRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("set_loyalty_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	customer, err := h.Svc.SetLoyalty(ctx, service.SetLoyaltyInput{
		Phone:         req.Phone,
		CustomerName:  req.CustomerName,
		LoyaltyPoints: req.LoyaltyPoints,
		TotalSpent:    req.TotalSpent,
		VisitCount:    req.VisitCount,
	})
	if err != nil {
		status := httpStatus(err)
		l.Warn("set_loyalty_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("set_loyalty_success", "phone", req.Phone)
	return c.JSON(http.StatusOK, view(customer))
}

func (h *CustomersHTTP) CreateCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.create_customer")

	var req transport.CreateCustomerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_customer_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	customer := &models.Customer{Name: req.Name, Phone: req.Phone}
	if err := h.Svc.Create(ctx, customer); err != nil {
		status := httpStatus(err)
		l.Warn("create_customer_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("create_customer_success", "customer_id", customer.ID)
	return c.JSON(http.StatusCreated, view(customer))
}

func (h *CustomersHTTP) GetCustomer(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.get_customer")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}

	customer, err := h.Svc.Get(ctx, uint(id))
	if err != nil {
		status := httpStatus(err)
		l.Warn("get_customer_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, view(customer))
}

func (h *CustomersHTTP) GetByPhone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.get_by_phone")

	customer, err := h.Svc.GetByPhone(ctx, c.QueryParam("phone"))
	if err != nil {
		status := httpStatus(err)
		l.Warn("get_by_phone_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, view(customer))
}

func (h *CustomersHTTP) ListCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.list_customers")

	customers, err := h.Svc.List(ctx, intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		l.Error("list_customers_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list customers")
	}
	return c.JSON(http.StatusOK, customers)
}

func (h *CustomersHTTP) TopCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "customers.top_customers")

	customers, err := h.Svc.Top(ctx, intQuery(c, "limit", 10))
	if err != nil {
		l.Error("top_customers_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list customers")
	}
	return c.JSON(http.StatusOK, customers)
}
