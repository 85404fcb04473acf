package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// Field names of a cached link hash.
const (
	fieldID          = "id"
	fieldCode        = "code"
	fieldDestination = "destination"
	fieldOwner       = "owner"
	fieldCreatedAt   = "created_at"
	fieldExpiresAt   = "expires_at"
	fieldActive      = "active"
)

// cacheIfAbsent fills a link hash only when no record exists for the key, so a
// read that raced a delete cannot overwrite the inactive record the delete left.
// ARGV[1] is the TTL in milliseconds, the rest are field/value pairs.
var cacheIfAbsent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
if tonumber(ARGV[1]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return 1
`)

// legacyExpiryFields are expiry field names written by older mirrors of the link record.
var legacyExpiryFields = []string{"expiry_date", "expiryDate", "expiresAt"}

// RedisCacheRepository wraps a Repository with Redis caching for code lookups.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Insert stores a link in the underlying store and updates the cache.
func (r *RedisCacheRepository) Insert(ctx context.Context, link *shortener.Link) error {
	if err := r.store.Insert(ctx, link); err != nil {
		return err
	}

	// Write-through: update cache after successful insert
	r.fill(ctx, link)

	return nil
}

// GetByCode retrieves a link by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, link)

	return link, nil
}

// GetByID is not cached; ownership checks always read the store.
func (r *RedisCacheRepository) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return r.store.GetByID(ctx, id)
}

// Exists consults the store, which holds the authoritative uniqueness constraint.
func (r *RedisCacheRepository) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	return r.store.Exists(ctx, code)
}

// Delete deactivates the link in the store and caches it as inactive.
func (r *RedisCacheRepository) Delete(ctx context.Context, id, owner string) error {
	link, lookupErr := r.store.GetByID(ctx, id)

	if err := r.store.Delete(ctx, id, owner); err != nil {
		return err
	}

	if lookupErr == nil {
		r.tombstone(ctx, link)
	}

	return nil
}

// Deactivate marks the link inactive in the store and caches it as inactive.
func (r *RedisCacheRepository) Deactivate(ctx context.Context, id string) error {
	link, lookupErr := r.store.GetByID(ctx, id)

	if err := r.store.Deactivate(ctx, id); err != nil {
		return err
	}

	if lookupErr == nil {
		r.tombstone(ctx, link)
	}

	return nil
}

// DeactivateExpired delegates to the store. Stale cache entries still carry their
// expiry, so resolution keeps reporting them as expired until they are evicted.
func (r *RedisCacheRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.store.DeactivateExpired(ctx, now)
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	result, err := r.client.HGetAll(ctx, r.key(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	return decodeLink(normalizeRecord(result)), nil
}

// fill caches link unless a record for its code is already present.
func (r *RedisCacheRepository) fill(ctx context.Context, link *shortener.Link) {
	fields := encodeLink(link)

	args := make([]interface{}, 0, 1+2*len(fields))
	args = append(args, r.ttl.Milliseconds())

	for field, value := range fields {
		args = append(args, field, value)
	}

	_ = cacheIfAbsent.Run(ctx, r.client, []string{r.key(link.Code)}, args...).Err()
}

// tombstone overwrites the cached record with an inactive copy of link.
// Deactivation is terminal, so the record may live for the full TTL.
func (r *RedisCacheRepository) tombstone(ctx context.Context, link *shortener.Link) {
	inactive := *link
	inactive.Active = false

	key := r.key(link.Code)
	pipe := r.client.TxPipeline()

	pipe.HSet(ctx, key, encodeLink(&inactive))

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

func (r *RedisCacheRepository) key(code shortener.Code) string {
	return r.prefix + string(code)
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

func encodeLink(link *shortener.Link) map[string]interface{} {
	expiresAt := ""
	if link.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(link.ExpiresAt.UnixNano(), 10)
	}

	return map[string]interface{}{
		fieldID:          link.ID,
		fieldCode:        string(link.Code),
		fieldDestination: link.Destination,
		fieldOwner:       link.Owner,
		fieldCreatedAt:   link.CreatedAt.UnixNano(),
		fieldExpiresAt:   expiresAt,
		fieldActive:      strconv.FormatBool(link.Active),
	}
}

// normalizeRecord maps legacy expiry field names onto expires_at.
// A record carrying expires_at keeps it; otherwise the first legacy field found wins.
func normalizeRecord(record map[string]string) map[string]string {
	if _, ok := record[fieldExpiresAt]; ok {
		return record
	}

	for _, legacy := range legacyExpiryFields {
		if v, ok := record[legacy]; ok {
			record[fieldExpiresAt] = v
			delete(record, legacy)

			break
		}
	}

	return record
}

func decodeLink(record map[string]string) *shortener.Link {
	link := &shortener.Link{
		ID:          record[fieldID],
		Code:        shortener.Code(record[fieldCode]),
		Destination: record[fieldDestination],
		Owner:       record[fieldOwner],
		CreatedAt:   parseTimestamp(record[fieldCreatedAt]),
		Active:      record[fieldActive] != "false",
	}

	if v := record[fieldExpiresAt]; v != "" {
		at := parseTimestamp(v)
		if !at.IsZero() {
			link.ExpiresAt = &at
		}
	}

	return link
}

// parseTimestamp accepts unix nanoseconds or RFC 3339 text.
func parseTimestamp(v string) time.Time {
	if nanos, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(0, nanos).UTC()
	}

	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC()
	}

	return time.Time{}
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
