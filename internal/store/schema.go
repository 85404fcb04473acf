package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// schemaLockID serializes concurrent EnsureSchema calls across processes.
const schemaLockID = 727274001

type migration struct {
	version    int
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS links (
				id          TEXT PRIMARY KEY,
				code        VARCHAR(16) NOT NULL UNIQUE,
				destination TEXT NOT NULL,
				owner_id    TEXT,
				title       TEXT,
				description TEXT,
				created_at  TIMESTAMPTZ NOT NULL,
				expires_at  TIMESTAMPTZ,
				active      BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE INDEX IF NOT EXISTS links_owner_idx ON links (owner_id)`,
			`CREATE INDEX IF NOT EXISTS links_expiry_idx ON links (expires_at) WHERE active`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS click_events (
				event_id    TEXT PRIMARY KEY,
				link_id     TEXT NOT NULL REFERENCES links (id) ON DELETE CASCADE,
				code        VARCHAR(16) NOT NULL,
				occurred_at TIMESTAMPTZ NOT NULL,
				client_ip   TEXT,
				user_agent  TEXT,
				referrer    TEXT,
				device      TEXT,
				os          TEXT,
				browser     TEXT,
				country     TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS click_events_link_idx ON click_events (link_id, occurred_at)`,
			`CREATE TABLE IF NOT EXISTS impression_events (
				event_id    TEXT PRIMARY KEY,
				link_id     TEXT NOT NULL REFERENCES links (id) ON DELETE CASCADE,
				code        VARCHAR(16) NOT NULL,
				occurred_at TIMESTAMPTZ NOT NULL,
				client_ip   TEXT,
				user_agent  TEXT,
				referrer    TEXT,
				device      TEXT,
				os          TEXT,
				browser     TEXT,
				country     TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS impression_events_link_idx ON impression_events (link_id, occurred_at)`,
		},
	},
}

// EnsureSchema applies pending migrations. It is safe to call from every process at start:
// progress is recorded in schema_version and concurrent callers serialize on an advisory lock.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin schema transaction")
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return errors.Wrap(err, "acquire schema lock")
	}

	if _, err = tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version    INT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return errors.Wrap(err, "create schema_version")
	}

	var current int
	if err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return errors.Wrap(err, "read schema version")
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		for _, stmt := range m.statements {
			if _, err = tx.Exec(ctx, stmt); err != nil {
				return errors.Wrapf(err, "apply migration %d", m.version)
			}
		}

		if _, err = tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.version); err != nil {
			return errors.Wrapf(err, "record migration %d", m.version)
		}

		logger.Info("schema migration applied", zap.Int("version", m.version))
	}

	return errors.Wrap(tx.Commit(ctx), "commit schema")
}

// SchemaVersion returns the latest migration version known to this binary.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}
