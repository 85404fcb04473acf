package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(id, code, owner string) *shortener.Link {
	return &shortener.Link{
		ID:          id,
		Code:        shortener.Code(code),
		Destination: "https://example.com/" + code,
		Owner:       owner,
		CreatedAt:   time.Now().UTC(),
		Active:      true,
	}
}

func TestMemoryStore_Insert(t *testing.T) {
	t.Run("inserts link successfully", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

		require.NoError(t, err)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

		err := s.Insert(context.Background(), newLink("id-2", "abc1234", ""))

		assert.ErrorIs(t, err, shortener.ErrConflict)

		link, _ := s.GetByCode(context.Background(), "abc1234")
		assert.Equal(t, "id-1", link.ID)
	})
}

func TestMemoryStore_GetByCode(t *testing.T) {
	t.Run("returns link when found", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

		link, err := s.GetByCode(context.Background(), "abc1234")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/abc1234", link.Destination)
	})

	t.Run("returns ErrNotFound when code does not exist", func(t *testing.T) {
		s := store.NewMemoryStore()

		link, err := s.GetByCode(context.Background(), "missing")

		assert.Nil(t, link)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("returns a copy", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

		link, _ := s.GetByCode(context.Background(), "abc1234")
		link.Active = false

		again, _ := s.GetByCode(context.Background(), "abc1234")
		assert.True(t, again.Active)
	})
}

func TestMemoryStore_Exists(t *testing.T) {
	s := store.NewMemoryStore()
	_ = s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

	exists, err := s.Exists(context.Background(), "abc1234")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(context.Background(), "zzz9999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Run("owner deletes link", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", "alice"))

		err := s.Delete(context.Background(), "id-1", "alice")

		require.NoError(t, err)

		link, _ := s.GetByCode(context.Background(), "abc1234")
		assert.False(t, link.Active)

		_, err = s.GetByID(context.Background(), "id-1")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", "alice"))

		err := s.Delete(context.Background(), "id-1", "mallory")

		assert.ErrorIs(t, err, shortener.ErrForbidden)
	})

	t.Run("anonymous link is forbidden", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

		err := s.Delete(context.Background(), "id-1", "alice")

		assert.ErrorIs(t, err, shortener.ErrForbidden)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.Delete(context.Background(), "missing", "alice")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Insert(context.Background(), newLink("id-1", "abc1234", "alice"))
		_ = s.Delete(context.Background(), "id-1", "alice")

		err := s.Delete(context.Background(), "id-1", "alice")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}

func TestMemoryStore_DeactivateExpired(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newLink("id-1", "expired", "")
	expired.ExpiresAt = &past
	fresh := newLink("id-2", "freshly", "")
	fresh.ExpiresAt = &future
	forever := newLink("id-3", "forever", "alice")

	for _, l := range []*shortener.Link{expired, fresh, forever} {
		require.NoError(t, s.Insert(context.Background(), l))
	}

	count, err := s.DeactivateExpired(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	link, _ := s.GetByCode(context.Background(), "expired")
	assert.False(t, link.Active)

	link, _ = s.GetByCode(context.Background(), "freshly")
	assert.True(t, link.Active)

	count, err = s.DeactivateExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStore_Deactivate(t *testing.T) {
	s := store.NewMemoryStore()
	_ = s.Insert(context.Background(), newLink("id-1", "abc1234", ""))

	require.NoError(t, s.Deactivate(context.Background(), "id-1"))
	require.NoError(t, s.Deactivate(context.Background(), "id-1"))
	require.NoError(t, s.Deactivate(context.Background(), "missing"))

	link, _ := s.GetByCode(context.Background(), "abc1234")
	assert.False(t, link.Active)
}
