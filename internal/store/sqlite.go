package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/exportsync/internal/core"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultBatchSize is the number of rows per insert statement.
const DefaultBatchSize = 500

// maxSQLiteVariables bounds the bound parameters of one statement.
const maxSQLiteVariables = 32766

// SQLite writes tables to a SQLite database file.
type SQLite struct {
	db        *sqlx.DB
	batchSize int
}

// OpenSQLite opens (creating if needed) the database at dsn.
func OpenSQLite(ctx context.Context, dsn string, batchSize int) (*SQLite, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One writer; concurrent runs queue on the connection instead of
	// failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SQLite{db: db, batchSize: batchSize}, nil
}

// DB exposes the underlying handle.
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Write implements core.Store.
func (s *SQLite) Write(ctx context.Context, t *core.Table) (int64, error) {
	defs, err := columnDefs(t, "TEXT", "REAL", "INTEGER PRIMARY KEY AUTOINCREMENT")
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	table := quoteIdent(t.Name)
	switch t.Policy {
	case core.PolicyReplace, "":
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return 0, fmt.Errorf("drop table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, defs)); err != nil {
			return 0, fmt.Errorf("create table: %w", err)
		}
	case core.PolicyAppend:
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, defs)); err != nil {
			return 0, fmt.Errorf("create table: %w", err)
		}
	default:
		return 0, fmt.Errorf("unknown write policy %q", t.Policy)
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c.Name)
	}

	batch := s.batchSize
	if limit := maxSQLiteVariables / len(cols); batch > limit {
		batch = limit
	}

	rows := t.Rows()
	var written int64
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))

		ins := sq.Insert(table).Columns(cols...).PlaceholderFormat(sq.Question)
		for _, row := range rows[start:end] {
			ins = ins.Values(row...)
		}

		query, args, err := ins.ToSql()
		if err != nil {
			return written, fmt.Errorf("build insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return written, fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(end - start)
		}
		written += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true

	return written, nil
}
