package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Skotchmaster/inventory/internal/config"
	"github.com/Skotchmaster/inventory/internal/db"
	"github.com/Skotchmaster/inventory/internal/events"
	"github.com/Skotchmaster/inventory/internal/httpserver"
	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/repo"
	"github.com/Skotchmaster/inventory/internal/search"
	"github.com/Skotchmaster/inventory/internal/service"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.Config{
		Service: cfg.ServiceName,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	pub, err := events.New(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}

	store := &repo.GormRepo{DB: gdb}
	inv := &service.InventoryService{
		Repo:             store,
		Events:           pub,
		EnforceOwnership: cfg.EnforceProductOwnership,
	}
	if cfg.ESURL != "" {
		idx, err := search.NewESIndex(search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := idx.Ping(pingCtx); err != nil {
			logger.Warn("elasticsearch_unavailable", "url", cfg.ESURL, "error", err)
		}
		pingCancel()
		inv.Search = idx
	}

	authSvc := &service.AuthService{
		Repo:             store,
		Events:           pub,
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		SessionTTL:       cfg.SessionTTL,
		AllowSuperSignup: cfg.AllowSuperSignup,
	}

	e, err := httpserver.NewServer(logger, &httpserver.Deps{
		DB:           gdb,
		Auth:         authSvc,
		Inv:          inv,
		JWTSecret:    cfg.JWTSecret,
		CookieSecure: cfg.CookieSecure,
	})
	if err != nil {
		log.Fatalf("http server: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	go purgeSessions(bgCtx, authSvc, logger)

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	bgCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := pub.Close(); err != nil {
		logger.Error("kafka close failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close failed", "error", err)
	}

	logger.Info("shutdown complete")
}

func purgeSessions(ctx context.Context, auth *service.AuthService, logger *slog.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := auth.PurgeSessions(ctx)
			if err != nil {
				logger.Warn("purge_sessions_failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purge_sessions", "deleted", n)
			}
		}
	}
}
