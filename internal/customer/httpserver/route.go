package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	CustomersHandler *CustomersHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	customers := e.Group("/customers")
	customers.POST("", d.CustomersHandler.CreateCustomer)
	customers.GET("", d.CustomersHandler.ListCustomers)
	customers.GET("/top", d.CustomersHandler.TopCustomers)
	customers.GET("/by-phone", d.CustomersHandler.GetByPhone)
	customers.POST("/update-from-bill", d.CustomersHandler.UpdateFromBill)
	customers.PUT("/loyalty", d.CustomersHandler.SetLoyalty)
	customers.GET("/:id", d.CustomersHandler.GetCustomer)
}
