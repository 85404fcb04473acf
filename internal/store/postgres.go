package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/serroba/shortlink/internal/shortener"
)

const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (id, code, destination, owner_id, title, description, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.pool.Exec(ctx, query,
		link.ID,
		string(link.Code),
		link.Destination,
		nullableString(link.Owner),
		nullableString(link.Title),
		nullableString(link.Description),
		link.CreatedAt,
		link.ExpiresAt,
		link.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shortener.ErrConflict
		}

		return errors.Wrap(err, "insert link")
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `
		SELECT id, code, destination, owner_id, title, description, created_at, expires_at, active
		FROM links
		WHERE code = $1
	`

	return p.getOne(ctx, query, string(code))
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	query := `
		SELECT id, code, destination, owner_id, title, description, created_at, expires_at, active
		FROM links
		WHERE id = $1 AND active
	`

	return p.getOne(ctx, query, id)
}

func (p *PostgresStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE code = $1)`, string(code)).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check code")
	}

	return exists, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id, owner string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin delete")
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var linkOwner *string

	err = tx.QueryRow(ctx, `SELECT owner_id FROM links WHERE id = $1 AND active FOR UPDATE`, id).Scan(&linkOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortener.ErrNotFound
		}

		return errors.Wrap(err, "select link owner")
	}

	if linkOwner == nil || *linkOwner != owner {
		return shortener.ErrForbidden
	}

	if _, err = tx.Exec(ctx, `UPDATE links SET active = FALSE WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deactivate link")
	}

	return errors.Wrap(tx.Commit(ctx), "commit delete")
}

func (p *PostgresStore) Deactivate(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `UPDATE links SET active = FALSE WHERE id = $1 AND active`, id)

	return errors.Wrap(err, "deactivate link")
}

func (p *PostgresStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`UPDATE links SET active = FALSE WHERE active AND expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, "deactivate expired links")
	}

	return tag.RowsAffected(), nil
}

func (p *PostgresStore) getOne(ctx context.Context, query string, arg any) (*shortener.Link, error) {
	var (
		link                      shortener.Link
		code                      string
		owner, title, description *string
	)

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&link.ID,
		&code,
		&link.Destination,
		&owner,
		&title,
		&description,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, errors.Wrap(err, "select link")
	}

	link.Code = shortener.Code(code)
	link.Owner = deref(owner)
	link.Title = deref(title)
	link.Description = deref(description)

	return &link, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
