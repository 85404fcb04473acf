package shortener

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MaxAttempts bounds the generate/check cycles of a single allocation.
const MaxAttempts = 10

// Allocator finds a code that is not yet present in the repository.
// The check is optimistic: the repository's uniqueness constraint remains authoritative.
type Allocator struct {
	store        Repository
	generateCode CodeGenerator
	maxAttempts  int
	logger       *zap.Logger
}

// NewAllocator creates an allocator probing store with codes from generator.
func NewAllocator(store Repository, generator CodeGenerator, logger *zap.Logger) *Allocator {
	return &Allocator{
		store:        store,
		generateCode: generator,
		maxAttempts:  MaxAttempts,
		logger:       logger,
	}
}

// Allocate returns an unused code or ErrExhaustedRetries after MaxAttempts collisions.
func (a *Allocator) Allocate(ctx context.Context) (Code, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		code := Code(a.generateCode())

		exists, err := a.store.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		if !exists {
			return code, nil
		}

		a.logger.Debug("short code collision",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	return "", ErrExhaustedRetries
}
