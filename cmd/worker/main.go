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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/salon-api/internal/config"
	"github.com/jwalitptl/salon-api/internal/handler/health"
	promhandler "github.com/jwalitptl/salon-api/internal/handler/prometheus"
	"github.com/jwalitptl/salon-api/internal/repository/postgres"
	"github.com/jwalitptl/salon-api/internal/service/payment"
	"github.com/jwalitptl/salon-api/internal/worker"
	"github.com/jwalitptl/salon-api/pkg/logger"
	"github.com/jwalitptl/salon-api/pkg/messaging/redis"
	"github.com/jwalitptl/salon-api/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	port := flag.Int("port", 8081, "port for health and metrics")
	sweepEvery := flag.Duration("sweep-interval", time.Hour, "how often to count overdue installments")
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

	prom := promhandler.New()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, prom.Registry())

	checks := map[string]health.Pinger{}
	ledger := payment.NewService(
		payment.Config{},
		postgres.NewTransactor(db),
		postgres.NewPaymentRepository(db),
		postgres.NewInstallmentRepository(db),
		postgres.NewAppointmentRepository(db),
		nil, m,
	)
	go worker.NewOverdueSweep(ledger, *sweepEvery, m).Start(ctx)

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
		if p, ok := broker.(health.Pinger); ok {
			checks["redis"] = p
		}

		listener := worker.NewLedgerListener(broker, cfg.Redis.ChannelPrefix, worker.LogEvent, m)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("ledger listener stopped")
				stop()
			}
		}()
	} else {
		log.Warn().Msg("redis disabled, ledger events will not be consumed")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(db, checks).RegisterRoutes(engine)
	engine.GET("/metrics", prom.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("health server failed")
		}
	}()

	log.Info().Int("port", *port).Msg("worker started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}
	log.Info().Msg("worker exited")
}
