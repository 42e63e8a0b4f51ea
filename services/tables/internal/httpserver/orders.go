package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tuanhng/restaurant-pos/pkg/logging"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/service"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/transport"
)

type OrdersHTTP struct {
	Svc         *service.OrderService
	Fulfillment *service.FulfillmentService
}

// AddTableItems opens the table's order on first add and merges items in.
func (h *OrdersHTTP) AddTableItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.add_table_items")

	tableID, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.AddItemsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_table_items_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.AddItemsToTable(ctx, tableID, req.Items, callerName(c), req.Notes)
	if err != nil {
		status := httpStatus(err)
		l.Warn("add_table_items_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("add_table_items_success", "table_id", tableID, "order_id", order.ID, "total", order.Total())
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) AddOrderItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.add_order_items")

	orderID, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.AddItemsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_order_items_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.AddItems(ctx, orderID, req.Items)
	if err != nil {
		status := httpStatus(err)
		l.Warn("add_order_items_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("add_order_items_success", "order_id", order.ID, "total", order.Total())
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get_order")

	orderID, err := idParam(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(ctx, orderID)
	if err != nil {
		status := httpStatus(err)
		l.Warn("get_order_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) GetOrderTotal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get_order_total")

	orderID, err := idParam(c)
	if err != nil {
		return err
	}

	total, err := h.Svc.Total(ctx, orderID)
	if err != nil {
		status := httpStatus(err)
		l.Warn("get_order_total_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"total": total})
}

func (h *OrdersHTTP) CompleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.complete_order")

	orderID, err := idParam(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Complete(ctx, orderID)
	if err != nil {
		status := httpStatus(err)
		l.Warn("complete_order_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("complete_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) TableOrderHistory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.table_order_history")

	tableID, err := idParam(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.HistoryByTable(ctx, tableID)
	if err != nil {
		l.Error("table_order_history_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}
	return c.JSON(http.StatusOK, orders)
}

// Checkout runs the fulfillment saga for the table's active order.
func (h *OrdersHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.checkout")

	tableID, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Fulfillment.CompleteAndBill(ctx, tableID, callerName(c), req)
	if err != nil {
		status := httpStatus(err)
		l.Warn("checkout_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("checkout_success", "table_id", tableID, "bill_id", result.Bill.ID)
	return c.JSON(http.StatusOK, result)
}
