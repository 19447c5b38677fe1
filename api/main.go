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

	"github.com/piratesdroid/travel-guide/internal/auth"
	"github.com/piratesdroid/travel-guide/internal/config"
	"github.com/piratesdroid/travel-guide/internal/elasticsearch"
	"github.com/piratesdroid/travel-guide/internal/favorites"
	"github.com/piratesdroid/travel-guide/internal/logger"
	"github.com/piratesdroid/travel-guide/internal/pincode"
	"github.com/piratesdroid/travel-guide/internal/validate"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	postal, err := pincode.NewStack(ctx, cfg.Postal, log)
	if err != nil {
		log.Error("init postal lookup", slog.Any("err", err))
		os.Exit(1)
	}
	defer postal.Close()

	srv := &server{
		log:       log,
		records:   esClient,
		postal:    postal.Client,
		pincodes:  pincode.NewCoordinator(postal.Resolver),
		favorites: favorites.NewService(esClient),
		verifier:  auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer),
		validate:  validate.New(),
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
