package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/omex-backend/internal/clients/redisclient"
	"github.com/yungbote/omex-backend/internal/data/db"
	"github.com/yungbote/omex-backend/internal/platform/converter"
	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
)

type Clients struct {
	DB        *db.Service
	Redis     *goredis.Client
	Bucket    objectstorage.Bucket
	Converter converter.Runner
}

// wireClients opens the database, redis and object storage concurrently.
// Whatever was opened before a failure is closed again.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	var out Clients
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc, err := db.NewService(log, db.Config{Driver: db.Driver(cfg.DBDriver), DSN: cfg.DBDSN})
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		out.DB = svc
		if err := svc.AutoMigrateAll(); err != nil {
			return fmt.Errorf("database automigrate: %w", err)
		}
		return nil
	})

	if cfg.PlanStore == planStoreRedis {
		g.Go(func() error {
			rdb, err := redisclient.New(gctx, log, redisclient.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				return fmt.Errorf("init redis: %w", err)
			}
			out.Redis = rdb
			return nil
		})
	}

	g.Go(func() error {
		bucket, err := resolveBucket(gctx, log, cfg)
		if err != nil {
			return err
		}
		out.Bucket = bucket
		return nil
	})

	if err := g.Wait(); err != nil {
		out.Close(log)
		return Clients{}, err
	}

	out.Converter = converter.New(log, converter.Config{
		Command:        cfg.ConverterCommand,
		Args:           cfg.ConverterArgs,
		Timeout:        cfg.ConverterTimeout,
		MaxConcurrency: cfg.ConverterMaxConcurrency,
		WorkDir:        cfg.ConverterWorkDir,
	})
	return out, nil
}

func (c Clients) Close(log *logger.Logger) {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if closer, ok := c.Bucket.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("Closing clients failed", "error", err)
	}
}

// redisPinger adapts a go-redis client to the readiness probe.
type redisPinger struct{ rdb *goredis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }
