package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"producermap/internal/cache"
	"producermap/internal/config"
	"producermap/internal/db"
	"producermap/internal/httpserver"
	"producermap/internal/notify"
	"producermap/internal/persist"
	listingrepo "producermap/internal/repository/listing"
	productrepo "producermap/internal/repository/product"
	"producermap/internal/repository/query"
	"producermap/internal/seed"
	productsvc "producermap/internal/service/product"
	"producermap/internal/session"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	var (
		dbpool   *pgxpool.Pool
		querier  query.Querier
		products productrepo.Repository
	)
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		dbpool = pool
		querier = query.NewPostgres(pool, logger)
		products = productrepo.NewPostgres(pool, logger)
	} else {
		mem := query.NewMemory()
		products = productrepo.NewMemory()
		res, err := seed.Apply(ctx, listingrepo.NewMemory(mem), products)
		if err != nil {
			logger.Fatalf("seed demo data: %v", err)
		}
		querier = mem
		logger.Printf("api: demo mode listings=%d products=%d", res.Listings, res.Products)
	}

	if cfg.ValkeyAddr != "" {
		vk, err := cache.NewValkey(cfg.ValkeyAddr)
		if err != nil {
			logger.Fatalf("connect to valkey: %v", err)
		}
		defer vk.Close()
		querier = query.NewCached(querier, vk, cfg.QueryCacheTTL)
		logger.Printf("api: query cache enabled addr=%s ttl=%s", cfg.ValkeyAddr, cfg.QueryCacheTTL)
	}

	store, closeStore, err := stateStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("init state store: %v", err)
	}
	defer closeStore()

	notifier := notify.Log(logger)
	if cfg.NATSURL != "" {
		nc, err := notify.NewNATS(cfg.NATSURL, cfg.NotifySubjectPrefix, logger)
		if err != nil {
			logger.Fatalf("connect to nats: %v", err)
		}
		defer nc.Close()
		notifier = notify.Multi(notifier, nc)
	}

	catalog := productsvc.New(products)

	sessions, err := session.NewManager(session.Options{
		Querier:   querier,
		Products:  catalog,
		Store:     store,
		Namespace: cfg.StateNamespace,
		PageSize:  cfg.PageSize,
		Debounce:  cfg.Debounce,
		Notifier:  notifier,
		Logger:    logger,
		Limit:     cfg.SessionLimit,
	})
	if err != nil {
		logger.Fatalf("init sessions: %v", err)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:    sessions,
		Products:    catalog,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// stateStore builds the client-state backend named by PERSIST_BACKEND.
func stateStore(ctx context.Context, cfg config.Config) (persist.Store, func(), error) {
	switch cfg.PersistBackend {
	case config.PersistNone:
		return nil, func() {}, nil
	case config.PersistFile:
		store, err := persist.NewFile(cfg.PersistDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case config.PersistRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return persist.NewRedis(client, cfg.StateTTL), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown PERSIST_BACKEND %q", cfg.PersistBackend)
	}
}
