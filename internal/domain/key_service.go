package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/Flarenzy/keygate/internal/auth"
)

const maxKeyNameLength = 100

type keyService struct {
	keys        KeyRepository
	invalidator CacheInvalidator
	generate    func() (string, string, error)
}

// NewKeyService builds the key management service. invalidator may be nil.
func NewKeyService(keys KeyRepository, invalidator CacheInvalidator) KeyService {
	return &keyService{
		keys:        keys,
		invalidator: invalidator,
		generate:    auth.GenerateKey,
	}
}

func (s *keyService) ListKeys(ctx context.Context, userID string) ([]APIKey, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.keys.ListByUser(ctx, userID)
}

func (s *keyService) CreateKey(ctx context.Context, input CreateKeyInput) (IssuedKey, error) {
	if err := validateCreateKeyInput(input); err != nil {
		return IssuedKey{}, err
	}

	plaintext, prefix, err := s.generate()
	if err != nil {
		return IssuedKey{}, fmt.Errorf("generate key: %w", err)
	}

	key, err := s.keys.Create(ctx, CreateKeyRecord{
		UserID: input.UserID,
		Name:   strings.TrimSpace(input.Name),
		Prefix: prefix,
		Hash:   auth.HashKey(plaintext),
		Claims: input.Claims,
	})
	if err != nil {
		return IssuedKey{}, err
	}

	return IssuedKey{APIKey: key, Plaintext: plaintext}, nil
}

func (s *keyService) GetKey(ctx context.Context, id KeyID) (APIKey, error) {
	return s.keys.FindByID(ctx, id)
}

func (s *keyService) RevokeKey(ctx context.Context, id KeyID) error {
	key, err := s.keys.Revoke(ctx, id)
	if err != nil {
		return err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, key.Hash); err != nil {
			return fmt.Errorf("invalidate cached key: %w", err)
		}
	}
	return nil
}

func validateCreateKeyInput(input CreateKeyInput) error {
	if strings.TrimSpace(input.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(name) > maxKeyNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidInput, maxKeyNameLength)
	}

	for i, c := range input.Claims {
		if strings.TrimSpace(c.Type) == "" {
			return fmt.Errorf("%w: claims[%d] has an empty type", ErrInvalidInput, i)
		}
		// The user id claim is always derived from the key owner.
		if c.Type == auth.ClaimTypeNameIdentifier {
			return fmt.Errorf("%w: claims[%d] uses a reserved type", ErrInvalidInput, i)
		}
	}
	return nil
}
