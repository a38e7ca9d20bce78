// Package bootstrap wires the store, lock and event publisher chosen by
// configuration into an appointment.Service. Every binary that talks to
// the scheduling engine starts here.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

type Deps struct {
	Service *appointment.Service
	Repo    appointment.Repository
	PgPool  *pgxpool.Pool // nil with the memory store
	Redis   *redis.Client // nil when REDIS_ADDR is unset

	closers []func()
}

// Close releases connections in reverse order of creation.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*Deps, error) {
	d := &Deps{}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{})
		cancel()
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		d.PgPool = pool
		d.Repo = appointment.NewPgRepository(pool)
		log.Info("connected to Postgres")
	case config.StoreMemory:
		d.Repo = appointment.NewMemRepository()
		log.Warn("using in-memory store, data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	var locker redisclient.Locker
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Warn("error closing redis", zap.Error(err))
			}
		})
		d.Redis = rdb
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockAttempts, cfg.LockRetryDelay)
		log.Info("connected to Redis")
	} else {
		locker = redisclient.NewLocalLocker()
		log.Info("REDIS_ADDR not set, calendar locks are process-local")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, func() {
			if err := p.Close(); err != nil {
				log.Warn("error closing amqp publisher", zap.Error(err))
			}
		})
		publisher = p
		log.Info("publishing events", zap.String("exchange", cfg.AMQPExchange))
	}

	d.Service = appointment.NewService(d.Repo, locker, publisher, cfg, log)
	return d, nil
}
