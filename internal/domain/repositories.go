package domain

import "context"

type KeyRepository interface {
	ListByUser(ctx context.Context, userID string) ([]APIKey, error)
	FindByID(ctx context.Context, id KeyID) (APIKey, error)
	// FindActiveByHash never returns revoked keys.
	FindActiveByHash(ctx context.Context, hash string) (APIKey, error)
	Create(ctx context.Context, record CreateKeyRecord) (APIKey, error)
	// Revoke returns ErrNotFound when the key is missing or already revoked.
	Revoke(ctx context.Context, id KeyID) (APIKey, error)
}

// CacheInvalidator drops cached lookups for a key hash.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, hash string) error
}
