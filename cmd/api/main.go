package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/app"
	"github.com/jwalitptl/salon-api/internal/config"
	"github.com/jwalitptl/salon-api/internal/handler/health"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/pkg/logger"
	"github.com/jwalitptl/salon-api/pkg/messaging"
	"github.com/jwalitptl/salon-api/pkg/messaging/redis"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	gin.SetMode(cfg.Server.Mode)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{Publisher: messaging.Noop{}, ReadinessChecks: map[string]health.Pinger{}}
	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()

		opts.Publisher = messaging.NewChannelPublisher(broker, cfg.Redis.ChannelPrefix)
		if p, ok := broker.(health.Pinger); ok {
			opts.ReadinessChecks["redis"] = p
		}
	}

	r := app.New(cfg, db, opts)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited properly")
}
