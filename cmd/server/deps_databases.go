package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/ollama"
	"github.com/angelahq/angela/internal/pkg/database"
	"github.com/angelahq/angela/internal/pkg/di"
	"github.com/angelahq/angela/internal/storage"
	"github.com/angelahq/angela/internal/worker"
)

// Databases holds the infrastructure connections
type Databases struct {
	Postgres *database.PostgresDB
	AuditDB  *sqlx.DB
	Redis    *database.RedisDB
	Storage  *storage.Client
	Ollama   *ollama.Client
	Queue    *worker.Enqueuer
}

// registerDatabases registers the infrastructure connections. The
// container closes them in reverse creation order on shutdown.
func registerDatabases(c *di.Container, cfg *config.Config, logger *zap.Logger) {
	c.MustRegister("db.postgres", di.Singleton, func(di.Resolver) (any, error) {
		pg, err := database.NewPostgres(context.Background(), cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return pg, nil
	})

	// The audit trail writes through sqlx on its own pool
	c.MustRegister("db.audit", di.Singleton, func(di.Resolver) (any, error) {
		db, err := database.NewSQLX(context.Background(), cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audit pool: %w", err)
		}
		return db, nil
	})

	c.MustRegister("db.redis", di.Singleton, func(di.Resolver) (any, error) {
		rdb, err := database.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		return rdb, nil
	})

	c.MustRegister("storage", di.Singleton, func(di.Resolver) (any, error) {
		store, err := storage.NewClient(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		// An unreachable bucket only breaks dataset export, not the API
		if err := store.EnsureBucket(context.Background()); err != nil {
			logger.Warn("artifact bucket unavailable, dataset export will fail until it is back", zap.Error(err))
		}
		return store, nil
	})

	c.MustRegister("ollama", di.Singleton, func(di.Resolver) (any, error) {
		return ollama.NewClient(cfg.Ollama), nil
	})

	// The queue handle owns its asynq client; closing the handle closes
	// the connection
	c.MustRegister("queue", di.Singleton, func(di.Resolver) (any, error) {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return worker.NewEnqueuer(client), nil
	})

	c.MustRegister("databases", di.Singleton, func(r di.Resolver) (any, error) {
		pg, err := di.ResolveAs[*database.PostgresDB](r, "db.postgres")
		if err != nil {
			return nil, err
		}
		auditDB, err := di.ResolveAs[*sqlx.DB](r, "db.audit")
		if err != nil {
			return nil, err
		}
		rdb, err := di.ResolveAs[*database.RedisDB](r, "db.redis")
		if err != nil {
			return nil, err
		}
		store, err := di.ResolveAs[*storage.Client](r, "storage")
		if err != nil {
			return nil, err
		}
		llmClient, err := di.ResolveAs[*ollama.Client](r, "ollama")
		if err != nil {
			return nil, err
		}
		queue, err := di.ResolveAs[*worker.Enqueuer](r, "queue")
		if err != nil {
			return nil, err
		}

		return &Databases{
			Postgres: pg,
			AuditDB:  auditDB,
			Redis:    rdb,
			Storage:  store,
			Ollama:   llmClient,
			Queue:    queue,
		}, nil
	})
}
