package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	campaigns "github.com/fundverse/escrow-service/campaigns"
	config "github.com/fundverse/escrow-service/config"
	escrow "github.com/fundverse/escrow-service/escrow"
	routes "github.com/fundverse/escrow-service/routes"
	store "github.com/fundverse/escrow-service/store"
	transfers "github.com/fundverse/escrow-service/transfers"
	utils "github.com/fundverse/escrow-service/utils"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	cfg.Store = store.NewMongo(cfg.MongoClient, cfg.DBName)
	cfg.Campaigns = campaigns.NewHTTPClient(cfg.CampaignAPIURL)
	cfg.Tracker = transfers.NewTracker(cfg.Store, transfers.SimulatedRail{})
	cfg.Escrow = escrow.NewService(cfg.Store, cfg.Campaigns, cfg.Tracker, escrow.Config{
		Operators:     cfg.Operators,
		EscrowAccount: cfg.EscrowAccount,
		Notifier:      utils.EmailNotifier{},
	})

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders: []string{"ETag", "Last-Modified"},
		MaxAge:        12 * time.Hour,
	}))
	routes.SetupRoutes(r, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("escrow service listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	if err := cfg.Store.Close(shutdownCtx); err != nil {
		slog.Error("store close", "error", err)
	}
}
