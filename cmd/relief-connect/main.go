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

	"github.com/reliefconnect/relief-connect/internal/api"
	"github.com/reliefconnect/relief-connect/internal/broadcast"
	"github.com/reliefconnect/relief-connect/internal/config"
	"github.com/reliefconnect/relief-connect/internal/genai"
	"github.com/reliefconnect/relief-connect/internal/live"
	"github.com/reliefconnect/relief-connect/internal/logging"
	"github.com/reliefconnect/relief-connect/internal/models"
	"github.com/reliefconnect/relief-connect/internal/notify"
	"github.com/reliefconnect/relief-connect/internal/query"
	"github.com/reliefconnect/relief-connect/internal/session"
	"github.com/reliefconnect/relief-connect/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	sessions, err := session.Open(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize session database: %v", err)
	}
	defer sessions.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recordStore := store.New()
	recordStore.Seed(store.SampleAlerts())

	dispatcher := notify.NewDispatcher(cfg.Notify.WebhookURL, cfg.Notify.Workers, cfg.Notify.BufferSize)
	dispatcher.Start(ctx)

	local := broadcast.NewBroadcaster()

	// Incidents relayed from other instances are upserted by ID, so
	// redelivery is harmless, then re-announced locally.
	onIncident := func(rec models.Record) {
		if !recordStore.Upsert(rec) {
			return
		}
		local.Publish(rec)
		dispatcher.Dispatch(rec)
	}

	relay := &broadcast.Relay{Local: local}
	if cfg.Broadcast.RedisAddr != "" {
		bridge, err := broadcast.Dial(ctx, cfg.Broadcast.RedisAddr, cfg.Broadcast.Channel, onIncident)
		if err != nil {
			slog.Warn("cross-instance broadcast unavailable", "addr", cfg.Broadcast.RedisAddr, "error", err)
		} else {
			bridge.Run(ctx)
			relay.Bridge = bridge
			defer bridge.Close()
		}
	}

	exec := query.NewExecutor(recordStore, relay, dispatcher)

	place, err := sessions.SavedPlace(ctx)
	if err != nil {
		slog.Warn("failed to load saved place", "error", err)
	}
	view := live.New(exec, dispatcher, cfg.Live.RefreshInterval, place)
	go view.Run(ctx)

	tokens, err := genai.DefaultTokenSource(ctx)
	if err != nil {
		slog.Warn("cloud credentials unavailable, generate endpoint will fail", "error", err)
	}
	proxy := genai.NewProxy(cfg.GenAI.BaseURL, cfg.GenAI.Model, tokens)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(exec, view, local, sessions)
	handler.RegisterRoutes(router)
	proxy.RegisterRoutes(router)

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

	// Drain HTTP handlers before tearing down what they publish to.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	local.Close()
	dispatcher.Stop()

	slog.Info("shutdown complete")
}
