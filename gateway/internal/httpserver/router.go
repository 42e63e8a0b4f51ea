package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tuanhng/restaurant-pos/gateway/internal/middleware"
)

type Deps struct {
	TablesURL   string
	BillingURL  string
	CustomerURL string

	JWTSecret []byte
}

var mutating = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, m := range middleware.Common() {
		e.Use(m)
	}
	e.Use(middleware.StripIdentityHeaders())

	tablesProxy, err := newProxy(d.TablesURL, "/api/v1")
	if err != nil {
		return err
	}
	billingProxy, err := newProxy(d.BillingURL, "/api/v1")
	if err != nil {
		return err
	}
	customerProxy, err := newProxy(d.CustomerURL, "/api/v1")
	if err != nil {
		return err
	}

	// Reads are open to the floor displays, writes carry staff identity.
	e.Match([]string{http.MethodGet}, "/api/v1/tables", tablesProxy)
	e.Match([]string{http.MethodGet}, "/api/v1/tables/*", tablesProxy)
	e.Match([]string{http.MethodGet}, "/api/v1/orders/*", tablesProxy)
	e.Match([]string{http.MethodGet}, "/api/v1/bills", billingProxy)
	e.Match([]string{http.MethodGet}, "/api/v1/bills/*", billingProxy)
	e.Match([]string{http.MethodGet}, "/api/v1/customers", customerProxy)
	e.Match([]string{http.MethodGet}, "/api/v1/customers/*", customerProxy)

	api := e.Group("/api/v1")
	api.Use(middleware.JWT(d.JWTSecret))

	api.Match(mutating, "/tables", tablesProxy)
	api.Match(mutating, "/tables/*", tablesProxy)
	api.Match(mutating, "/orders/*", tablesProxy)
	api.Match(mutating, "/bills", billingProxy)
	api.Match(mutating, "/bills/recompute-loyalty", billingProxy)
	api.Match([]string{http.MethodPut}, "/bills/:id", billingProxy)
	api.Match([]string{http.MethodDelete}, "/bills/:id", billingProxy, middleware.RequireRole([]string{"admin", "manager"}))
	api.Match(mutating, "/customers", customerProxy)
	api.Match(mutating, "/customers/*", customerProxy)

	return nil
}
