package domain

import (
	"context"
	"errors"
	"log/slog"
)

type loggingKeyService struct {
	logger *slog.Logger
	next   KeyService
}

func NewLoggingKeyService(logger *slog.Logger, next KeyService) KeyService {
	if logger == nil || next == nil {
		return next
	}

	return &loggingKeyService{
		logger: logger,
		next:   next,
	}
}

func (s *loggingKeyService) ListKeys(ctx context.Context, userID string) ([]APIKey, error) {
	keys, err := s.next.ListKeys(ctx, userID)
	if err != nil {
		s.logger.Log(ctx, failureLevel(err), "list keys failed", "user_id", userID, "err", err.Error())
	}
	return keys, err
}

func (s *loggingKeyService) CreateKey(ctx context.Context, input CreateKeyInput) (IssuedKey, error) {
	key, err := s.next.CreateKey(ctx, input)
	if err != nil {
		s.logger.Log(ctx, failureLevel(err), "create key failed", "user_id", input.UserID, "name", input.Name, "err", err.Error())
		return IssuedKey{}, err
	}

	s.logger.InfoContext(ctx, "key created", "id", string(key.ID), "user_id", key.UserID, "prefix", key.Prefix)
	return key, nil
}

func (s *loggingKeyService) GetKey(ctx context.Context, id KeyID) (APIKey, error) {
	key, err := s.next.GetKey(ctx, id)
	if err != nil {
		s.logger.Log(ctx, failureLevel(err), "get key failed", "id", string(id), "err", err.Error())
	}
	return key, err
}

func (s *loggingKeyService) RevokeKey(ctx context.Context, id KeyID) error {
	err := s.next.RevokeKey(ctx, id)
	if err != nil {
		s.logger.Log(ctx, failureLevel(err), "revoke key failed", "id", string(id), "err", err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "key revoked", "id", string(id))
	return nil
}

// failureLevel keeps caller mistakes out of the error level.
func failureLevel(err error) slog.Level {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized):
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
