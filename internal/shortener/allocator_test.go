package shortener_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seed(t *testing.T, repo shortener.Repository, codes ...string) {
	t.Helper()

	for i, code := range codes {
		err := repo.Insert(context.Background(), &shortener.Link{
			ID:          "seed-" + code + "-" + string(rune('a'+i)),
			Code:        shortener.Code(code),
			Destination: "https://example.com",
			CreatedAt:   time.Now(),
			Active:      true,
		})
		require.NoError(t, err)
	}
}

func TestAllocator_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first free code", func(t *testing.T) {
		repo := newFaultyRepository()
		alloc := shortener.NewAllocator(repo, sequenceGenerator("aaaaaaa"), zap.NewNop())

		code, err := alloc.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("aaaaaaa"), code)
		assert.Equal(t, 1, repo.existsCalls)
	})

	t.Run("skips taken codes", func(t *testing.T) {
		repo := newFaultyRepository()
		seed(t, repo, "taken01", "taken02")

		alloc := shortener.NewAllocator(repo, sequenceGenerator("taken01", "taken02", "free001"), zap.NewNop())

		code, err := alloc.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("free001"), code)
		assert.Equal(t, 3, repo.existsCalls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		repo := newFaultyRepository()
		seed(t, repo, "collide")

		alloc := shortener.NewAllocator(repo, sequenceGenerator("collide"), zap.NewNop())

		_, err := alloc.Allocate(ctx)
		require.ErrorIs(t, err, shortener.ErrExhaustedRetries)
		assert.Equal(t, shortener.MaxAttempts, repo.existsCalls)
	})

	t.Run("succeeds on the last attempt", func(t *testing.T) {
		repo := newFaultyRepository()
		seed(t, repo, "collide")

		codes := make([]string, 0, shortener.MaxAttempts)
		for range shortener.MaxAttempts - 1 {
			codes = append(codes, "collide")
		}

		codes = append(codes, "lastone")

		alloc := shortener.NewAllocator(repo, sequenceGenerator(codes...), zap.NewNop())

		code, err := alloc.Allocate(ctx)
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("lastone"), code)
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		repo := newFaultyRepository()
		repo.existsErr = errors.New("connection refused")

		alloc := shortener.NewAllocator(repo, sequenceGenerator("aaaaaaa"), zap.NewNop())

		_, err := alloc.Allocate(ctx)
		require.ErrorIs(t, err, shortener.ErrUnavailable)
		assert.NotErrorIs(t, err, shortener.ErrExhaustedRetries)
		assert.Equal(t, 1, repo.existsCalls)
	})
}
