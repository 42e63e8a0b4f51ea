package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tuanhng/restaurant-pos/pkg/billingclient"
	"github.com/tuanhng/restaurant-pos/pkg/db"
	"github.com/tuanhng/restaurant-pos/pkg/keymutex"
	"github.com/tuanhng/restaurant-pos/pkg/logging"
	loggingmw "github.com/tuanhng/restaurant-pos/pkg/middleware/logging"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/config"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/httpserver"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/models"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/repo"
	"github.com/tuanhng/restaurant-pos/services/tables/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "tables")

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	if err := gdb.AutoMigrate(&models.Table{}, &models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("migrate error: %v", err)
	}

	Repo := &repo.GormRepo{DB: gdb}
	locks := keymutex.New()

	tableService := &service.TableService{Repo: Repo, Locks: locks}
	orderService := &service.OrderService{Repo: Repo, Locks: locks}
	fulfillment := &service.FulfillmentService{
		Repo:    Repo,
		Locks:   locks,
		Billing: billingclient.NewClient(cfg.BillingURL),
	}

	httpserver.Register(e, &httpserver.Deps{
		TablesHandler: &httpserver.TablesHTTP{Svc: tableService},
		OrdersHandler: &httpserver.OrdersHTTP{Svc: orderService, Fulfillment: fulfillment},
	})

	go func() {
		logger.Info("starting tables service", "port", cfg.ServerPort)
		if err := e.Start(":" + strconv.Itoa(cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
}
