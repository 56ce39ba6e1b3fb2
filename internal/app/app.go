// Package app assembles services from a config.Config for the cmd binaries.
package app

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-stockorders/internal/auth"
	"github.com/ariefcatur/go-stockorders/internal/catalog"
	"github.com/ariefcatur/go-stockorders/internal/config"
	kafkax "github.com/ariefcatur/go-stockorders/internal/kafka"
	"github.com/ariefcatur/go-stockorders/internal/memstore"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/ariefcatur/go-stockorders/internal/postgres"
	"github.com/ariefcatur/go-stockorders/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	Orders   *orders.Service
	Catalog  *catalog.Service
	Auth     *auth.Service
	Redis    *redis.Client     // nil when REDIS_ADDR is empty
	Producer *kafkax.Producer // nil when KAFKA_BROKERS is empty

	closers []func()
}

// Close releases resources in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{}
	var (
		ledger   orders.StockLedger
		store    orders.Store
		products catalog.Repository
		users    auth.UserStore
	)

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
		ledger = &postgres.Ledger{DB: db, Log: log}
		store = &postgres.OrderStore{DB: db}
		products = &postgres.ProductRepo{DB: db}
		users = &postgres.UserStore{DB: db}
	case config.DriverMemory:
		p := memstore.NewProducts(log)
		ledger, products = p, p
		store = memstore.NewOrders()
		users = memstore.NewUsers()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisEnabled() {
		a.Redis = redisx.New(cfg.RedisAddr)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed, continuing")
		}
		a.closers = append(a.closers, func() { _ = a.Redis.Close() })
		store = redisx.NewCachedStore(store, a.Redis, log)
	}

	var events orders.Publisher
	if cfg.KafkaEnabled() {
		a.Producer = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		a.Producer.Start(ctx)
		a.closers = append(a.closers, func() {
			a.Producer.Close()      // tutup inbox -> flush & close writer
			a.Producer.WaitClosed() // drain
		})
		events = kafkax.NewOrderEvents(a.Producer, cfg.ServiceName)
	}

	a.Orders = orders.NewService(ledger, store, events, log, orders.Options{
		MaxConflictRetries: cfg.MaxConflictRetries,
	})
	a.Catalog = catalog.NewService(products, log)
	a.Auth = auth.NewService(users, auth.NewTokens(cfg.JWTSecret), auth.TTLs{
		Access:          cfg.AccessTokenTTL,
		Refresh:         cfg.RefreshTokenTTL,
		RefreshRemember: cfg.RefreshTokenTTLRemember,
	}, log)
	return a, nil
}
