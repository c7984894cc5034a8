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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/healthwatch/go-health-alerts/internal/api"
	"github.com/healthwatch/go-health-alerts/internal/config"
	"github.com/healthwatch/go-health-alerts/internal/detection"
	"github.com/healthwatch/go-health-alerts/internal/logging"
	"github.com/healthwatch/go-health-alerts/internal/monitor"
	"github.com/healthwatch/go-health-alerts/internal/notify"
	"github.com/healthwatch/go-health-alerts/internal/repository"
	"github.com/healthwatch/go-health-alerts/internal/surveillance"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := surveillance.NewClient(cfg.Surveillance.BaseURL, cfg.Surveillance.Timeout)
	transport := notify.NewHTTPGateway(cfg.Messaging.GatewayURL, cfg.Messaging.Timeout)
	dispatcher := notify.NewDispatcher(db, db, transport, logging.Component("dispatcher"))
	engine := detection.NewEngine()

	mon := monitor.New(monitor.Options{
		Interval:     cfg.Monitor.Interval,
		ErrorBackoff: cfg.Monitor.ErrorBackoff,
		Regions:      cfg.Monitor.Regions,
		Diseases:     cfg.Monitor.Diseases,
	}, db, provider, engine, dispatcher, logging.Component("monitor"))

	if cfg.Monitor.Enabled {
		mon.Start(ctx)
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(5, 10)) // 5 req/s global limit

	handler := api.NewHandler(db, mon)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mon.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
