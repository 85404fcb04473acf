package shortener

import (
	"context"
	"time"
)

// Repository persists links.
type Repository interface {
	// Insert stores a new link. Returns ErrConflict if the code is taken.
	Insert(ctx context.Context, link *Link) error
	GetByCode(ctx context.Context, code Code) (*Link, error)
	GetByID(ctx context.Context, id string) (*Link, error)
	Exists(ctx context.Context, code Code) (bool, error)

	// Delete deactivates the link if owner matches. Returns ErrNotFound or ErrForbidden.
	Delete(ctx context.Context, id, owner string) error

	// Deactivate marks the link inactive. Deactivating an inactive link is a no-op.
	Deactivate(ctx context.Context, id string) error

	// DeactivateExpired marks every active link whose expiry is before now as inactive.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}
