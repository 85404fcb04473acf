package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/serroba/shortlink/internal/analytics"
	"go.uber.org/zap"
)

const foreignKeyViolation = "23503"

// Postgres persists click and impression events next to the links table.
// Redelivered events are ignored by event id.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var (
	_ analytics.Store       = (*Postgres)(nil)
	_ analytics.StatsReader = (*Postgres)(nil)
)

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, logger: logger}
}

func (p *Postgres) SaveClick(ctx context.Context, event *analytics.ClickEvent) error {
	return p.insert(ctx, "click_events", event.EventID, event.LinkID, event.Code, event.OccurredAt, event.Attributes)
}

func (p *Postgres) SaveImpression(ctx context.Context, event *analytics.ImpressionEvent) error {
	return p.insert(ctx, "impression_events", event.EventID, event.LinkID, event.Code, event.OccurredAt, event.Attributes)
}

func (p *Postgres) insert(
	ctx context.Context,
	table, eventID, linkID, code string,
	occurredAt any,
	attrs analytics.Attributes,
) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (event_id, link_id, code, occurred_at, client_ip, user_agent, referrer, device, os, browser, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) DO NOTHING
	`, table)

	_, err := p.pool.Exec(ctx, query,
		eventID, linkID, code, occurredAt,
		attrs.ClientIP, attrs.UserAgent, attrs.Referrer,
		string(attrs.Device), attrs.OS, attrs.Browser, attrs.Country,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			// the link row is gone; redelivery cannot help
			p.logger.Warn("dropping event for unknown link",
				zap.String("table", table),
				zap.String("link_id", linkID),
			)

			return nil
		}

		return errors.Wrapf(err, "insert into %s", table)
	}

	return nil
}

func (p *Postgres) LinkStats(ctx context.Context, linkID string) (*analytics.Stats, error) {
	stats := analytics.NewStats()

	err := p.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM click_events WHERE link_id = $1),
			(SELECT count(*) FROM impression_events WHERE link_id = $1)
	`, linkID).Scan(&stats.Clicks, &stats.Impressions)
	if err != nil {
		return nil, errors.Wrap(err, "count events")
	}

	breakdowns := []struct {
		column string
		into   map[string]int64
	}{
		{"device", stats.Devices},
		{"os", stats.OS},
		{"browser", stats.Browsers},
		{"country", stats.Countries},
	}

	for _, b := range breakdowns {
		if err := p.breakdown(ctx, linkID, b.column, func(key string, n int64) {
			if key == "" {
				key = "unknown"
			}

			b.into[key] += n
		}); err != nil {
			return nil, err
		}
	}

	if err := p.breakdown(ctx, linkID, "referrer", func(key string, n int64) {
		stats.Referrers[analytics.ReferrerHost(key)] += n
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

func (p *Postgres) breakdown(ctx context.Context, linkID, column string, add func(string, int64)) error {
	query := fmt.Sprintf(`
		SELECT COALESCE(%[1]s, ''), count(*)
		FROM click_events
		WHERE link_id = $1
		GROUP BY 1
	`, column)

	rows, err := p.pool.Query(ctx, query, linkID)
	if err != nil {
		return errors.Wrapf(err, "breakdown by %s", column)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int64
		)

		if err := rows.Scan(&key, &count); err != nil {
			return errors.Wrapf(err, "scan %s breakdown", column)
		}

		add(key, count)
	}

	return errors.Wrapf(rows.Err(), "read %s breakdown", column)
}
