package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-stockorders/internal/app"
	"github.com/ariefcatur/go-stockorders/internal/config"
	"github.com/ariefcatur/go-stockorders/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-stockorders/internal/kafka"
	"github.com/ariefcatur/go-stockorders/internal/logging"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/ariefcatur/go-stockorders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", cfg.ServiceName+"-fulfillment").Logger()
	if !cfg.KafkaEnabled() {
		logger.Fatal().Msg("KAFKA_BROKERS is required for the fulfillment worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init")
	}
	defer a.Close()

	svc := &fulfillment.Service{Orders: a.Orders, Log: logger}
	if a.Redis != nil {
		svc.Dedup = redisx.NewDedup(a.Redis, "fulfillment")
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.FulfillmentGroup, orders.TopicFulfillmentConfirmed, cfg.FulfillmentWorkers, logger)
	done := make(chan struct{})
	var consErr error
	go func() {
		defer close(done)
		logger.Info().
			Str("group", cfg.FulfillmentGroup).
			Str("topic", orders.TopicFulfillmentConfirmed).
			Int("workers", cfg.FulfillmentWorkers).
			Msg("fulfillment consumer started")
		if consErr = cons.Start(ctx, svc.HandleFulfillmentConfirmed); consErr != nil {
			logger.Error().Err(consErr).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down consumer...")
	cancel()
	<-done
	if consErr != nil {
		// non-zero so the supervisor restarts us from the last committed offset
		a.Close()
		os.Exit(1)
	}
}
