package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/app"
	"github.com/ariefcatur/go-stockorders/internal/config"
	"github.com/ariefcatur/go-stockorders/internal/httpx"
	"github.com/ariefcatur/go-stockorders/internal/logging"
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
	logger := logging.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", cfg.ServiceName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init")
	}
	defer a.Close()

	oh := &httpx.OrdersHandler{Service: a.Orders, Log: logger}
	if a.Redis != nil {
		oh.Idem = redisx.NewIdempotency(a.Redis)
	}
	handler := httpx.NewHandler(httpx.API{
		Orders:   oh,
		Products: &httpx.ProductsHandler{Service: a.Catalog, Log: logger},
		Auth:     &httpx.AuthHandler{Service: a.Auth, Log: logger},
	}, a.Auth, logger)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.StorageDriver).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
