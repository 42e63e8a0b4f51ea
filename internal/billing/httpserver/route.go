package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	BillsHandler *BillsHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	bills := e.Group("/bills")
	bills.POST("", d.BillsHandler.CreateBill)
	bills.GET("", d.BillsHandler.ListBills)
	bills.GET("/stats", d.BillsHandler.Stats)
	bills.GET("/monthly-revenue", d.BillsHandler.MonthlyRevenue)
	bills.GET("/search", d.BillsHandler.SearchBills)
	bills.POST("/recompute-loyalty", d.BillsHandler.RecomputeLoyalty)
	bills.GET("/:id", d.BillsHandler.GetBill)
	bills.PUT("/:id", d.BillsHandler.UpdateBill)
	bills.DELETE("/:id", d.BillsHandler.DeleteBill)
}
