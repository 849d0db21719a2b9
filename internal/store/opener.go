package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/exportsync/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options configures an Opener.
type Options struct {
	Driver     string // "sqlite" or "postgres"
	DefaultDSN string // Used when a source names no destination
	BatchSize  int    // SQLite rows per insert

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Opener opens stores per run. SQLite databases are opened and closed with
// each run; PostgreSQL pools are kept per DSN and each run holds one pooled
// connection.
type Opener struct {
	opts Options

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// NewOpener validates the driver and returns an Opener.
func NewOpener(opts Options) (*Opener, error) {
	opts.Driver = strings.ToLower(opts.Driver)
	switch opts.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	return &Opener{opts: opts, pools: make(map[string]*pgxpool.Pool)}, nil
}

// Open implements core.StoreOpener.
func (o *Opener) Open(ctx context.Context, destination string) (core.Store, error) {
	dsn := destination
	if dsn == "" {
		dsn = o.opts.DefaultDSN
	}
	if dsn == "" {
		return nil, fmt.Errorf("no destination configured")
	}

	if o.opts.Driver == "sqlite" {
		return OpenSQLite(ctx, dsn, o.opts.BatchSize)
	}

	pool, err := o.pool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return NewPostgres(conn, conn.Release), nil
}

func (o *Opener) pool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if p, ok := o.pools[dsn]; ok {
		return p, nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if o.opts.MaxConns > 0 {
		cfg.MaxConns = int32(o.opts.MaxConns)
	}
	if o.opts.MinConns > 0 {
		cfg.MinConns = int32(o.opts.MinConns)
	}
	if o.opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = o.opts.MaxConnLifetime
	}
	if o.opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = o.opts.MaxConnIdleTime
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	o.pools[dsn] = p
	return p, nil
}

// Ping checks that the default destination is reachable.
func (o *Opener) Ping(ctx context.Context) error {
	s, err := o.Open(ctx, "")
	if err != nil {
		return err
	}
	return s.Close()
}

// Close closes every pool opened so far.
func (o *Opener) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for dsn, p := range o.pools {
		p.Close()
		delete(o.pools, dsn)
	}
}
