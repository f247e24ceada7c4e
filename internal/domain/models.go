package domain

import (
	"time"

	"github.com/Flarenzy/keygate/internal/auth"
)

type KeyID string

// APIKey is a stored key. The plaintext is never kept, only its hash and a
// short display prefix.
type APIKey struct {
	ID        KeyID
	UserID    string
	Name      string
	Prefix    string
	Hash      string
	Claims    []auth.Claim
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

func (k APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// IssuedKey is returned once, when a key is created.
type IssuedKey struct {
	APIKey
	Plaintext string
}
