package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuanhng/restaurant-pos/pkg/logging"
	"github.com/tuanhng/restaurant-pos/internal/billing/repo"
	"github.com/tuanhng/restaurant-pos/internal/billing/service"
	"github.com/tuanhng/restaurant-pos/internal/billing/transport"
)

type BillsHTTP struct {
	Svc *service.BillingService
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

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be an integer")
	}
	return uint(id), nil
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

func (h *BillsHTTP) CreateBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.create_bill")

	var req transport.CreateBillRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_bill_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	key := c.Request().Header.Get("Idempotency-Key")

	bill, created, err := h.Svc.CreateBill(ctx, key, req)
	if err != nil {
		status := httpStatus(err)
		l.Warn("create_bill_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	if !created {
		l.Info("create_bill_replayed", "bill_id", bill.ID, "idempotency_key", key)
		return c.JSON(http.StatusOK, bill)
	}

	l.Info("create_bill_success", "bill_id", bill.ID, "total", bill.Total)
	return c.JSON(http.StatusCreated, bill)
}

func (h *BillsHTTP) GetBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.get_bill")

	id, err := idParam(c)
	if err != nil {
		return err
	}

	bill, err := h.Svc.GetBill(ctx, id)
	if err != nil {
		status := httpStatus(err)
		l.Warn("get_bill_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *BillsHTTP) ListBills(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.list_bills")

	filter := repo.ListFilter{
		FromDate: c.QueryParam("from_date"),
		ToDate:   c.QueryParam("to_date"),
		Phone:    c.QueryParam("phone"),
		Search:   c.QueryParam("search"),
		Sort:     c.QueryParam("sort"),
		Skip:     intQuery(c, "skip", 0),
		Limit:    intQuery(c, "limit", 100),
	}

	bills, err := h.Svc.ListBills(ctx, filter)
	if err != nil {
		l.Error("list_bills_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list bills")
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *BillsHTTP) UpdateBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.update_bill")

	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.UpdateBillRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_bill_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	bill, err := h.Svc.UpdateBill(ctx, id, req)
	if err != nil {
		status := httpStatus(err)
		l.Warn("update_bill_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("update_bill_success", "bill_id", bill.ID)
	return c.JSON(http.StatusOK, bill)
}

func (h *BillsHTTP) DeleteBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.delete_bill")

	id, err := idParam(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteBill(ctx, id); err != nil {
		status := httpStatus(err)
		l.Warn("delete_bill_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("delete_bill_success", "bill_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *BillsHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.stats")

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		l.Error("stats_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot compute stats")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *BillsHTTP) MonthlyRevenue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.monthly_revenue")

	year := intQuery(c, "year", time.Now().UTC().Year())

	months, err := h.Svc.MonthlyRevenue(ctx, year)
	if err != nil {
		l.Error("monthly_revenue_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot compute revenue")
	}
	return c.JSON(http.StatusOK, months)
}

func (h *BillsHTTP) SearchBills(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.search_bills")

	query := c.QueryParam("q")
	from := intQuery(c, "from", 0)
	size := intQuery(c, "size", 20)

	bills, err := h.Svc.SearchBills(ctx, query, from, size)
	if err != nil {
		status := httpStatus(err)
		l.Warn("search_bills_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, bills)
}

// RecomputeLoyalty reconciles the loyalty ledger for one phone from the
// full billing history.
func (h *BillsHTTP) RecomputeLoyalty(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "bills.recompute_loyalty")

	var req transport.RecomputeRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("recompute_loyalty_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.RecomputeLoyalty(ctx, req.Phone); err != nil {
		status := httpStatus(err)
		l.Warn("recompute_loyalty_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("recompute_loyalty_success", "phone", req.Phone)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
