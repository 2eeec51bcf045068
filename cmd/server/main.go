package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fernhill/fieldtrack/internal/config"
	"github.com/fernhill/fieldtrack/internal/handler"
	"github.com/fernhill/fieldtrack/internal/repository"
	"github.com/fernhill/fieldtrack/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.Migrate(db.DB); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	slog.Info("database connected")

	jobRepo := repository.NewJobRepository(db)
	entryRepo := repository.NewTimeEntryRepository(db)
	rateRepo := repository.NewPayRateRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	workflowSvc := service.NewWorkflowService(jobRepo, propertyRepo, staffRepo, alertRepo, service.LogNotifier{}, service.WorkflowConfig{
		GPSTimeout:       cfg.GPSTimeout,
		LateArrivalGrace: cfg.LateArrivalGrace,
	})
	ledgerSvc := service.NewLedgerService(entryRepo)
	rateSvc := service.NewPayRateService(rateRepo, cfg.DefaultHourlyRate)

	jobHandler := handler.NewJobHandler(workflowSvc, jobRepo)
	entryHandler := handler.NewTimeEntryHandler(ledgerSvc)
	rateHandler := handler.NewPayRateHandler(rateSvc)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Validator = handler.NewAppValidator()

	e.Use(middleware.RequestID())
	e.Use(handler.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.GET("/health", func(c echo.Context) error {
		return handler.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1", handler.JWTAuth([]byte(cfg.JWTSecret)))

	api.GET("/jobs/:id", jobHandler.Get)
	api.POST("/jobs/:id/start", jobHandler.Start)
	api.POST("/jobs/:id/complete", jobHandler.Complete)
	api.GET("/jobs/:id/active-entry", entryHandler.ActiveByJob)
	api.GET("/staff/:id/jobs", jobHandler.ListByStaff)

	api.PATCH("/time-entries/:id", entryHandler.Edit)
	api.POST("/time-entries/:id/force-clock-out", entryHandler.ForceClockOut)

	api.GET("/staff/:id/time-entries", entryHandler.ListByStaff)
	api.GET("/staff/:id/rate", rateHandler.GetCurrent)
	api.GET("/staff/:id/rates", rateHandler.History)
	api.PUT("/staff/:id/rate", rateHandler.Set)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
