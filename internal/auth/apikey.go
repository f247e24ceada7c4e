package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultAPIKeyHeader     = "X-Api-Key"
	DefaultAPIKeyQueryParam = "apiKey"
	APIKeyScheme            = "API Key"

	// ReasonInvalidAPIKey is the failure reason for keys unknown to the store.
	ReasonInvalidAPIKey = "Invalid API Key."
)

// ErrKeyNotFound is returned by a KeyStore when no record matches the key.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyRecord is the identity a KeyStore associates with a key.
type APIKeyRecord struct {
	Key              string
	UserID           string
	AdditionalClaims []Claim
}

type KeyStore interface {
	FindAPIKey(ctx context.Context, key string) (APIKeyRecord, error)
}

// KeyStoreFunc adapts a function to the KeyStore interface.
type KeyStoreFunc func(ctx context.Context, key string) (APIKeyRecord, error)

func (f KeyStoreFunc) FindAPIKey(ctx context.Context, key string) (APIKeyRecord, error) {
	return f(ctx, key)
}

type APIKeyOptions struct {
	HeaderName     string
	QueryParamName string
	EnableHeader   bool
	EnableQuery    bool
	NameClaimType  string
	RoleClaimType  string
	Scheme         string
}

func DefaultAPIKeyOptions() APIKeyOptions {
	return APIKeyOptions{
		HeaderName:     DefaultAPIKeyHeader,
		QueryParamName: DefaultAPIKeyQueryParam,
		EnableHeader:   true,
		EnableQuery:    false,
		NameClaimType:  DefaultNameClaimType,
		RoleClaimType:  DefaultRoleClaimType,
		Scheme:         APIKeyScheme,
	}
}

func (o APIKeyOptions) withDefaults() APIKeyOptions {
	defaults := DefaultAPIKeyOptions()
	if o.HeaderName == "" {
		o.HeaderName = defaults.HeaderName
	}
	if o.QueryParamName == "" {
		o.QueryParamName = defaults.QueryParamName
	}
	if o.NameClaimType == "" {
		o.NameClaimType = defaults.NameClaimType
	}
	if o.RoleClaimType == "" {
		o.RoleClaimType = defaults.RoleClaimType
	}
	if o.Scheme == "" {
		o.Scheme = defaults.Scheme
	}
	return o
}

type apiKeyAuthenticator struct {
	store   KeyStore
	options APIKeyOptions
}

func NewAPIKeyAuthenticator(store KeyStore, options APIKeyOptions) (Authenticator, error) {
	if store == nil {
		return nil, fmt.Errorf("api key authentication requires a key store")
	}

	return &apiKeyAuthenticator{
		store:   store,
		options: options.withDefaults(),
	}, nil
}

func (a *apiKeyAuthenticator) Scheme() string {
	return a.options.Scheme
}

func (a *apiKeyAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Result, error) {
	key := a.extractKey(r)
	if key == "" {
		return NoResult(), nil
	}

	record, err := a.store.FindAPIKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return Fail(ReasonInvalidAPIKey), nil
		}
		return Result{}, fmt.Errorf("look up api key: %w", err)
	}

	claims := make([]Claim, 0, 1+len(record.AdditionalClaims))
	claims = append(claims, Claim{Type: ClaimTypeNameIdentifier, Value: record.UserID})
	claims = append(claims, record.AdditionalClaims...)

	return Success(Principal{
		Scheme:        a.options.Scheme,
		Claims:        claims,
		NameClaimType: a.options.NameClaimType,
		RoleClaimType: a.options.RoleClaimType,
	}), nil
}

// extractKey returns the candidate key, header first. Whitespace-only values
// count as absent.
func (a *apiKeyAuthenticator) extractKey(r *http.Request) string {
	var key string
	if a.options.EnableHeader {
		key = r.Header.Get(a.options.HeaderName)
	}

	if strings.TrimSpace(key) == "" && a.options.EnableQuery {
		key = r.URL.Query().Get(a.options.QueryParamName)
	}

	if strings.TrimSpace(key) == "" {
		return ""
	}
	return key
}
