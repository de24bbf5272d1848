package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/solarpro/storefront/internal/assistant"
	"github.com/solarpro/storefront/internal/config"
	"github.com/solarpro/storefront/internal/db"
	"github.com/solarpro/storefront/internal/events"
	"github.com/solarpro/storefront/internal/httpserver"
	"github.com/solarpro/storefront/internal/logging"
	"github.com/solarpro/storefront/internal/payment"
	"github.com/solarpro/storefront/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	database, err := db.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(database); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := db.Seed(database, os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)
	if producer == nil {
		logger.Warn("kafka brokers not configured, events disabled")
	}

	searchSvc := &search.Service{Index: cfg.ESIndex, DB: database}
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("elasticsearch unavailable, falling back to database search", "error", err)
		} else {
			searchSvc.ES = esClient
		}
	}

	bot := assistant.New(cfg.GeminiAPIKeys, assistant.NewGeminiClient())
	if len(cfg.GeminiAPIKeys) == 0 {
		logger.Warn("no gemini credentials configured, assistant disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), logger)))
			return next(c)
		}
	})

	httpserver.Register(e, httpserver.Deps{
		DB:        database,
		JWTSecret: cfg.JWTSecret,
		Producer:  producer,
		Search:    searchSvc,
		Assistant: bot,
		Gateway:   payment.NewMercadoPago(),
		PublicURL: cfg.PublicURL,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	if err := producer.Close(); err != nil {
		logger.Error("producer close error", "error", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("stopped")
}
