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

	"github.com/tuanhng/restaurant-pos/pkg/db"
	"github.com/tuanhng/restaurant-pos/pkg/events"
	"github.com/tuanhng/restaurant-pos/pkg/logging"
	loggingmw "github.com/tuanhng/restaurant-pos/pkg/middleware/logging"
	"github.com/tuanhng/restaurant-pos/pkg/loyaltyclient"
	"github.com/tuanhng/restaurant-pos/internal/billing/config"
	"github.com/tuanhng/restaurant-pos/internal/billing/es"
	"github.com/tuanhng/restaurant-pos/internal/billing/httpserver"
	"github.com/tuanhng/restaurant-pos/internal/billing/models"
	"github.com/tuanhng/restaurant-pos/internal/billing/repo"
	"github.com/tuanhng/restaurant-pos/internal/billing/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "billing")

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

	if err := gdb.AutoMigrate(&models.Bill{}, &models.BillItem{}); err != nil {
		log.Fatalf("migrate error: %v", err)
	}

	billingService := &service.BillingService{
		Repo:       &repo.GormRepo{DB: gdb},
		Loyalty:    loyaltyclient.NewClient(cfg.CustomerURL),
		PointsUnit: cfg.PointsUnit,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		defer producer.Close()
		billingService.Producer = producer
	}

	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch unavailable, search falls back to database", "error", err)
		} else {
			billingService.ES = esClient
		}
	}

	httpserver.Register(e, &httpserver.Deps{
		BillsHandler: &httpserver.BillsHTTP{Svc: billingService},
	})

	go func() {
		logger.Info("starting billing service", "port", cfg.ServerPort)
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
