package chessbuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-coach/internal/chess/uci"
	"github.com/park285/cheese-coach/internal/coach"
	"github.com/park285/cheese-coach/internal/config"
	"github.com/park285/cheese-coach/internal/msgcat"
	"github.com/park285/cheese-coach/internal/oracle"
	svccoach "github.com/park285/cheese-coach/internal/service/coach"
	"github.com/park285/cheese-coach/internal/stats"
)

const pingTimeout = 5 * time.Second

type Deps struct {
	Service *svccoach.Service
	Oracle  oracle.Oracle
	Repo    stats.Repository

	engine *oracle.UCI
	redis  *redis.Client
	db     *sql.DB
}

// New wires config into a ready coaching service. Redis and Postgres are
// optional; without them sessions and history stay in process.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}
	ok := false
	defer func() {
		if !ok {
			_ = deps.Close()
		}
	}()

	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.StockfishPath,
		Size:       cfg.OraclePoolSize,
		Settings:   uci.Settings{Threads: cfg.OracleThreads, HashMB: cfg.OracleHashMB},
	})
	if err != nil {
		return nil, fmt.Errorf("init engine pool: %w", err)
	}
	deps.engine = oracle.NewUCI(pool, oracle.UCIConfig{
		Depth:          cfg.OracleDepth,
		MoveTimeMillis: cfg.OracleMoveTimeMS,
	}, logger)
	deps.Oracle = deps.engine

	store := svccoach.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		deps.redis = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := deps.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.Oracle = oracle.NewCache(deps.engine, deps.redis, cfg.CacheKeyspace(), cfg.CacheTTL, logger)
		store = svccoach.NewRedisStore(deps.redis, cfg.SessionTTL)
	} else {
		logger.Info("REDIS_URL not set; sessions and evaluations stay in process")
	}

	deps.Repo = stats.NewMemoryRepository()
	if cfg.DatabaseURL != "" {
		deps.db, err = openPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()
			if err := stats.EnsureSchema(ctx, deps.db); err != nil {
				return nil, err
			}
		}
		deps.Repo = stats.NewRepository(deps.db)
	} else {
		logger.Info("DATABASE_URL not set; game history is not persisted")
	}

	catalog := msgcat.Default()
	if cfg.MessagesDir != "" {
		if catalog, err = msgcat.New(cfg.MessagesDir); err != nil {
			return nil, fmt.Errorf("load messages: %w", err)
		}
	}
	assessor := coach.NewAssessor(deps.Oracle, logger,
		coach.WithOracleBudget(cfg.OracleBudget),
		coach.WithCatalog(catalog),
	)

	deps.Service, err = svccoach.NewService(deps.Oracle, assessor, store, deps.Repo, svccoach.Config{
		EvalTimeout:  cfg.EvalTimeout,
		HistoryLimit: cfg.HistoryLimit,
	}, logger)
	if err != nil {
		return nil, err
	}
	ok = true
	return deps, nil
}

// Close releases the engine processes and connections.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.engine != nil {
		errs = append(errs, d.engine.Close())
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	return errors.Join(errs...)
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	return redis.ParseURL(raw)
}
