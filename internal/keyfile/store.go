// Package keyfile serves API keys declared in a YAML file.
//
// A file lists keys either in plaintext or as the hex SHA-256 digest of the
// key, so deployments can keep secrets out of the file:
//
//	keys:
//	  - key: kg_local-dev-key
//	    userId: alice
//	    claims:
//	      - type: role
//	        value: admin
//	  - hash: 6ca13d52ca70c883e0f0bb101e425a89e8624de51db2d2392593af6a84118090
//	    userId: ci-bot
package keyfile

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Flarenzy/keygate/internal/auth"
	"gopkg.in/yaml.v3"
)

type Entry struct {
	Key    string       `yaml:"key,omitempty"`
	Hash   string       `yaml:"hash,omitempty"`
	UserID string       `yaml:"userId"`
	Claims []auth.Claim `yaml:"claims,omitempty"`
}

type document struct {
	Keys []Entry `yaml:"keys"`
}

// Store is immutable once loaded and safe for concurrent lookups.
type Store struct {
	byHash map[string]Entry
}

func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	store, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

func Parse(data []byte) (*Store, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse key file: %w", err)
	}

	store := &Store{byHash: make(map[string]Entry, len(doc.Keys))}
	for i, entry := range doc.Keys {
		hash, err := entryHash(entry)
		if err != nil {
			return nil, fmt.Errorf("key entry %d: %w", i, err)
		}
		if strings.TrimSpace(entry.UserID) == "" {
			return nil, fmt.Errorf("key entry %d: userId is required", i)
		}
		for _, claim := range entry.Claims {
			if claim.Type == "" {
				return nil, fmt.Errorf("key entry %d: claim type is required", i)
			}
		}
		if _, exists := store.byHash[hash]; exists {
			return nil, fmt.Errorf("key entry %d: duplicate key", i)
		}

		entry.Key = ""
		entry.Hash = hash
		store.byHash[hash] = entry
	}

	return store, nil
}

func entryHash(entry Entry) (string, error) {
	switch {
	case entry.Key != "" && entry.Hash != "":
		return "", fmt.Errorf("set either key or hash, not both")
	case entry.Key != "":
		return auth.HashKey(entry.Key), nil
	case entry.Hash != "":
		hash := strings.ToLower(entry.Hash)
		if decoded, err := hex.DecodeString(hash); err != nil || len(decoded) != 32 {
			return "", fmt.Errorf("hash must be a hex sha-256 digest")
		}
		return hash, nil
	default:
		return "", fmt.Errorf("key or hash is required")
	}
}

func (s *Store) FindAPIKey(ctx context.Context, key string) (auth.APIKeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return auth.APIKeyRecord{}, err
	}

	entry, ok := s.byHash[auth.HashKey(key)]
	if !ok {
		return auth.APIKeyRecord{}, auth.ErrKeyNotFound
	}

	return auth.APIKeyRecord{
		Key:              key,
		UserID:           entry.UserID,
		AdditionalClaims: entry.Claims,
	}, nil
}

func (s *Store) Len() int {
	return len(s.byHash)
}
