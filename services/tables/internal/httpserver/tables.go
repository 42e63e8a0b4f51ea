package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tuanhng/restaurant-pos/pkg/logging"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/service"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/transport"
)

type TablesHTTP struct {
	Svc *service.TableService
}

// httpStatus maps the service error taxonomy onto HTTP.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
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

// callerName is the verified identity attached by the gateway; it is trusted
// as-is for attribution.
func callerName(c echo.Context) string {
	return c.Request().Header.Get("X-User-Name")
}

func (h *TablesHTTP) CreateTable(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tables.create_table")

	var req transport.CreateTableRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_table_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	table, err := h.Svc.Create(ctx, req.Name, req.Capacity, req.Floor)
	if err != nil {
		status := httpStatus(err)
		l.Warn("create_table_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("create_table_success", "table_id", table.ID)
	return c.JSON(http.StatusCreated, table)
}

func (h *TablesHTTP) GetTable(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tables.get_table")

	id, err := idParam(c)
	if err != nil {
		return err
	}

	table, err := h.Svc.Get(ctx, id)
	if err != nil {
		status := httpStatus(err)
		l.Warn("get_table_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, table)
}

func (h *TablesHTTP) ListTables(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tables.list_tables")

	tables, err := h.Svc.List(ctx)
	if err != nil {
		l.Error("list_tables_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list tables")
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *TablesHTTP) ListByFloor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tables.list_by_floor")

	grouped, err := h.Svc.ListByFloor(ctx)
	if err != nil {
		l.Error("list_by_floor_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list tables")
	}
	return c.JSON(http.StatusOK, grouped)
}

func (h *TablesHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tables.update_status")

	id, err := idParam(c)
	if err != nil {
		return err
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	table, err := h.Svc.SetStatus(ctx, id, req.Status)
	if err != nil {
		status := httpStatus(err)
		l.Warn("update_status_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("update_status_success", "table_id", id, "new_status", table.Status)
	return c.JSON(http.StatusOK, table)
}

func (h *TablesHTTP) DeleteTable(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tables.delete_table")

	id, err := idParam(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		status := httpStatus(err)
		l.Warn("delete_table_error", "status", status, "error", err)
		return echo.NewHTTPError(status, err.Error())
	}

	l.Info("delete_table_success", "table_id", id)
	return c.NoContent(http.StatusNoContent)
}
