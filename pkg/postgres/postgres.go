package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	URL            string `split_words:"true" required:"true"`
	MaxConns       int    `split_words:"true" default:"8"`
	ConnectTimeout int    `split_words:"true" default:"5"`
}

func (p *Config) New(ctx context.Context) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(p.URL)
	if err != nil {
		return nil, err
	}

	if p.MaxConns > 0 {
		poolCfg.MaxConns = int32(p.MaxConns)
	}
	poolCfg.ConnConfig.ConnectTimeout = time.Duration(p.ConnectTimeout) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
