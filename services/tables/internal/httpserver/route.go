package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	TablesHandler *TablesHTTP
	OrdersHandler *OrdersHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tables := e.Group("/tables")
	tables.POST("", d.TablesHandler.CreateTable)
	tables.GET("", d.TablesHandler.ListTables)
	tables.GET("/by-floor", d.TablesHandler.ListByFloor)
	tables.GET("/:id", d.TablesHandler.GetTable)
	tables.POST("/:id/status", d.TablesHandler.UpdateStatus)
	tables.DELETE("/:id", d.TablesHandler.DeleteTable)

	tables.POST("/:id/items", d.OrdersHandler.AddTableItems)
	tables.GET("/:id/orders", d.OrdersHandler.TableOrderHistory)
	tables.POST("/:id/checkout", d.OrdersHandler.Checkout)

	orders := e.Group("/orders")
	orders.GET("/:id", d.OrdersHandler.GetOrder)
	orders.GET("/:id/total", d.OrdersHandler.GetOrderTotal)
	orders.POST("/:id/items", d.OrdersHandler.AddOrderItems)
	orders.POST("/:id/complete", d.OrdersHandler.CompleteOrder)
}
