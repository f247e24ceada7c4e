package domain

import (
	"context"
	"errors"

	"github.com/Flarenzy/keygate/internal/auth"
)

type repositoryKeyStore struct {
	keys KeyRepository
}

// NewKeyStore exposes a KeyRepository to the API key authenticator.
func NewKeyStore(keys KeyRepository) auth.KeyStore {
	return &repositoryKeyStore{keys: keys}
}

func (s *repositoryKeyStore) FindAPIKey(ctx context.Context, key string) (auth.APIKeyRecord, error) {
	stored, err := s.keys.FindActiveByHash(ctx, auth.HashKey(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.APIKeyRecord{}, auth.ErrKeyNotFound
		}
		return auth.APIKeyRecord{}, err
	}

	// Revoked keys never authenticate.
	if stored.Revoked() {
		return auth.APIKeyRecord{}, auth.ErrKeyNotFound
	}

	return auth.APIKeyRecord{
		Key:              key,
		UserID:           stored.UserID,
		AdditionalClaims: stored.Claims,
	}, nil
}
