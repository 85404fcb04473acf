package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultStoreTimeout bounds every repository call made by the service.
const DefaultStoreTimeout = 3 * time.Second

// Recorder hands analytics events off without blocking the caller.
// Errors mean the event was dropped; they are logged, never surfaced.
type Recorder interface {
	RecordClick(link *Link, visit Visit, at time.Time) error
	RecordImpression(link *Link, visit Visit, at time.Time) error
}

// TaskRunner runs best-effort work in the background.
// Submit returns false when the task was dropped.
type TaskRunner interface {
	Submit(name string, task func(ctx context.Context) error) bool
}

// ShortenInput describes a link creation request.
type ShortenInput struct {
	Destination string
	Owner       string
	Expiry      Expiry
	Title       string
	Description string
}

// Service implements link creation, resolution and deletion.
type Service struct {
	store        Repository
	allocator    *Allocator
	recorder     Recorder
	tasks        TaskRunner
	clock        Clock
	storeTimeout time.Duration
	logger       *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithStoreTimeout overrides the per-call repository timeout.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.storeTimeout = timeout }
}

// NewService creates a link service.
func NewService(
	store Repository,
	allocator *Allocator,
	recorder Recorder,
	tasks TaskRunner,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:        store,
		allocator:    allocator,
		recorder:     recorder,
		tasks:        tasks,
		clock:        RealClock{},
		storeTimeout: DefaultStoreTimeout,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Shorten validates the input, allocates a code and stores the link.
// A uniqueness violation on insert is retried like a probe collision.
func (s *Service) Shorten(ctx context.Context, in ShortenInput) (*Link, error) {
	if err := ValidateDestination(in.Destination); err != nil {
		return nil, err
	}

	createdAt := s.clock.Now()

	expiresAt, err := ExpiresAt(in.Owner, in.Expiry, createdAt)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		code, err := s.allocate(ctx)
		if err != nil {
			if errors.Is(err, ErrExhaustedRetries) {
				s.logger.Error("short code allocation exhausted", zap.Int("attempt", attempt))
			}

			return nil, err
		}

		link := &Link{
			ID:          uuid.NewString(),
			Code:        code,
			Destination: in.Destination,
			Owner:       in.Owner,
			Title:       in.Title,
			Description: in.Description,
			CreatedAt:   createdAt,
			ExpiresAt:   expiresAt,
			Active:      true,
		}

		err = s.insert(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, ErrConflict) {
			return nil, err
		}

		s.logger.Warn("short code taken at insert, retrying",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	s.logger.Error("short code insert exhausted retries", zap.Int("attempts", MaxAttempts))

	return nil, ErrExhaustedRetries
}

// Resolve returns the destination for code and records a click.
// An expired link is deactivated in the background and reported as ErrExpired.
func (s *Service) Resolve(ctx context.Context, code Code, visit Visit) (string, error) {
	link, err := s.lookupActive(ctx, code)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()

	if link.ExpiredAt(now) {
		s.deactivateLater(link)

		return "", ErrExpired
	}

	if err := s.recorder.RecordClick(link, visit, now); err != nil {
		s.logger.Warn("click not recorded",
			zap.String("code", string(link.Code)),
			zap.Error(err),
		)
	}

	return link.Destination, nil
}

// RecordImpression records an interstitial impression for an active, unexpired link.
func (s *Service) RecordImpression(ctx context.Context, code Code, visit Visit) error {
	link, err := s.lookupActive(ctx, code)
	if err != nil {
		return err
	}

	now := s.clock.Now()

	if link.ExpiredAt(now) {
		s.deactivateLater(link)

		return ErrNotFound
	}

	if err := s.recorder.RecordImpression(link, visit, now); err != nil {
		s.logger.Warn("impression not recorded",
			zap.String("code", string(link.Code)),
			zap.Error(err),
		)
	}

	return nil
}

// Delete deactivates a link on behalf of its owner.
func (s *Service) Delete(ctx context.Context, id, owner string) error {
	if owner == "" {
		return ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return translate(s.store.Delete(ctx, id, owner))
}

// OwnedLink returns the link if owner created it and it has not been deleted.
func (s *Service) OwnedLink(ctx context.Context, id, owner string) (*Link, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	link, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	if link.Anonymous() || link.Owner != owner {
		return nil, ErrForbidden
	}

	return link, nil
}

// SweepExpired deactivates every link whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.store.DeactivateExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, translate(err)
	}

	return count, nil
}

func (s *Service) allocate(ctx context.Context) (Code, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return s.allocator.Allocate(ctx)
}

func (s *Service) insert(ctx context.Context, link *Link) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return translate(s.store.Insert(ctx, link))
}

func (s *Service) lookupActive(ctx context.Context, code Code) (*Link, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	link, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, translate(err)
	}

	if !link.Active {
		return nil, ErrNotFound
	}

	return link, nil
}

func (s *Service) deactivateLater(link *Link) {
	id := link.ID

	submitted := s.tasks.Submit("deactivate-expired-link", func(ctx context.Context) error {
		return s.store.Deactivate(ctx, id)
	})
	if !submitted {
		s.logger.Warn("expired link deactivation dropped", zap.String("code", string(link.Code)))
	}
}

// translate folds store errors into the service taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
