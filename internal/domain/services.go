package domain

import "context"

type KeyService interface {
	ListKeys(ctx context.Context, userID string) ([]APIKey, error)
	CreateKey(ctx context.Context, input CreateKeyInput) (IssuedKey, error)
	GetKey(ctx context.Context, id KeyID) (APIKey, error)
	RevokeKey(ctx context.Context, id KeyID) error
}
