package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const (
	KeyPrefix      = "kg_"
	keyEntropySize = 32
	displayLength  = len(KeyPrefix) + 6
	fingerprintLen = 12
)

// HashKey returns the hex SHA-256 digest stores use to index a key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Fingerprint shortens a HashKey digest into a log-safe identifier.
func Fingerprint(hash string) string {
	if len(hash) < fingerprintLen {
		return hash
	}
	return hash[:fingerprintLen]
}

// GenerateKey returns a new random key and its display prefix.
func GenerateKey() (key string, display string, err error) {
	buf := make([]byte, keyEntropySize)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read random bytes: %w", err)
	}

	key = KeyPrefix + base64.RawURLEncoding.EncodeToString(buf)
	return key, key[:displayLength], nil
}
