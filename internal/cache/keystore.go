// Package cache puts a Redis read-through cache in front of any auth.KeyStore.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix      = "keygate:apikey:"
	DefaultTTL         = time.Minute
	DefaultNegativeTTL = 10 * time.Second
)

type Options struct {
	Prefix string
	// TTL applies to keys that resolved to an identity.
	TTL time.Duration
	// NegativeTTL applies to unknown keys and is capped at TTL.
	NegativeTTL time.Duration
}

// entry is what gets stored in Redis. The plaintext key is never written.
type entry struct {
	Found  bool         `json:"found"`
	UserID string       `json:"userId,omitempty"`
	Claims []auth.Claim `json:"claims,omitempty"`
}

type KeyStore struct {
	client redis.Cmdable
	next   auth.KeyStore
	logger *slog.Logger
	opts   Options
}

func NewKeyStore(client redis.Cmdable, next auth.KeyStore, logger *slog.Logger, opts Options) (*KeyStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis cache requires a client")
	}
	if next == nil {
		return nil, fmt.Errorf("redis cache requires a key store to wrap")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.NegativeTTL <= 0 {
		opts.NegativeTTL = DefaultNegativeTTL
	}
	if opts.NegativeTTL > opts.TTL {
		opts.NegativeTTL = opts.TTL
	}

	return &KeyStore{client: client, next: next, logger: logger, opts: opts}, nil
}

func (s *KeyStore) FindAPIKey(ctx context.Context, key string) (auth.APIKeyRecord, error) {
	hash := auth.HashKey(key)
	cacheKey := s.opts.Prefix + hash

	if cached, ok := s.read(ctx, cacheKey, hash); ok {
		if !cached.Found {
			return auth.APIKeyRecord{}, auth.ErrKeyNotFound
		}
		return auth.APIKeyRecord{Key: key, UserID: cached.UserID, AdditionalClaims: cached.Claims}, nil
	}

	record, err := s.next.FindAPIKey(ctx, key)
	switch {
	case errors.Is(err, auth.ErrKeyNotFound):
		s.write(ctx, cacheKey, hash, entry{Found: false}, s.opts.NegativeTTL)
		return auth.APIKeyRecord{}, err
	case err != nil:
		return auth.APIKeyRecord{}, err
	}

	// A hit only fills an empty slot. If Invalidate ran while the store was
	// being read, its tombstone wins over the row we just loaded.
	s.writeIfAbsent(ctx, cacheKey, hash, entry{Found: true, UserID: record.UserID, Claims: record.AdditionalClaims}, s.opts.TTL)
	return record, nil
}

// Invalidate replaces the cached lookup for a key hash with a negative
// tombstone that lives for NegativeTTL.
func (s *KeyStore) Invalidate(ctx context.Context, hash string) error {
	data, err := json.Marshal(entry{Found: false})
	if err != nil {
		return fmt.Errorf("encode cache tombstone: %w", err)
	}
	if err := s.client.Set(ctx, s.opts.Prefix+hash, data, s.opts.NegativeTTL).Err(); err != nil {
		return fmt.Errorf("write cache tombstone: %w", err)
	}
	return nil
}

func (s *KeyStore) read(ctx context.Context, cacheKey, hash string) (entry, bool) {
	data, err := s.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "api key cache read failed",
				"fingerprint", auth.Fingerprint(hash),
				"err", err.Error(),
			)
		}
		return entry{}, false
	}

	var cached entry
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.WarnContext(ctx, "dropping corrupt api key cache entry",
			"fingerprint", auth.Fingerprint(hash),
			"err", err.Error(),
		)
		_ = s.client.Del(ctx, cacheKey).Err()
		return entry{}, false
	}
	return cached, true
}

func (s *KeyStore) write(ctx context.Context, cacheKey, hash string, value entry, ttl time.Duration) {
	data, ok := s.encode(ctx, value)
	if !ok {
		return
	}
	if err := s.client.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		s.logWriteFailure(ctx, hash, err)
	}
}

func (s *KeyStore) writeIfAbsent(ctx context.Context, cacheKey, hash string, value entry, ttl time.Duration) {
	data, ok := s.encode(ctx, value)
	if !ok {
		return
	}
	stored, err := s.client.SetNX(ctx, cacheKey, data, ttl).Result()
	if err != nil {
		s.logWriteFailure(ctx, hash, err)
		return
	}
	if !stored {
		s.logger.DebugContext(ctx, "api key cache slot taken, skipping write",
			"fingerprint", auth.Fingerprint(hash),
		)
	}
}

func (s *KeyStore) encode(ctx context.Context, value entry) ([]byte, bool) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode api key cache entry", "err", err.Error())
		return nil, false
	}
	return data, true
}

func (s *KeyStore) logWriteFailure(ctx context.Context, hash string, err error) {
	s.logger.WarnContext(ctx, "api key cache write failed",
		"fingerprint", auth.Fingerprint(hash),
		"err", err.Error(),
	)
}
