package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/exportsync/internal/core"
	"github.com/jackc/pgx/v5"
)

// TxBeginner starts transactions. *pgxpool.Pool, *pgxpool.Conn and pgxmock
// pools satisfy it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres writes tables to PostgreSQL with the COPY protocol.
type Postgres struct {
	conn    TxBeginner
	release func()
}

// NewPostgres returns a store over conn. release, when non-nil, is called by
// Close to give the connection back.
func NewPostgres(conn TxBeginner, release func()) *Postgres {
	return &Postgres{conn: conn, release: release}
}

// Close releases the connection.
func (p *Postgres) Close() error {
	if p.release != nil {
		p.release()
		p.release = nil
	}
	return nil
}

// Write implements core.Store.
func (p *Postgres) Write(ctx context.Context, t *core.Table) (int64, error) {
	defs, err := columnDefs(t, "TEXT", "DOUBLE PRECISION", "BIGSERIAL PRIMARY KEY")
	if err != nil {
		return 0, err
	}

	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback(ctx)
		}
	}()

	table := pgx.Identifier{t.Name}
	switch t.Policy {
	case core.PolicyReplace, "":
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+table.Sanitize()); err != nil {
			return 0, fmt.Errorf("drop table: %w", err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table.Sanitize(), defs)); err != nil {
			return 0, fmt.Errorf("create table: %w", err)
		}
	case core.PolicyAppend:
		if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Sanitize(), defs)); err != nil {
			return 0, fmt.Errorf("create table: %w", err)
		}
	default:
		return 0, fmt.Errorf("unknown write policy %q", t.Policy)
	}

	written, err := tx.CopyFrom(ctx, table, t.ColumnNames(), pgx.CopyFromRows(t.Rows()))
	if err != nil {
		return 0, fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true

	return written, nil
}
