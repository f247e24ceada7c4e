package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	BearerScheme       = "Bearer"
	ReasonInvalidToken = "invalid token"
)

type KeycloakConfig struct {
	Enabled       bool
	Issuer        string
	Audience      string
	JWKSURL       string
	NameClaimType string
	RoleClaimType string
}

type keycloakAuthenticator struct {
	issuer        string
	audience      string
	jwks          keyfunc.Keyfunc
	nameClaimType string
	roleClaimType string
}

func NewKeycloakAuthenticator(ctx context.Context, cfg KeycloakConfig) (Authenticator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("auth enabled but issuer is empty")
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = cfg.Issuer + "/protocol/openid-connect/certs"
	}

	if err := probeJWKS(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("fetch jwks from %s: %w", jwksURL, err)
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks from %s: %w", jwksURL, err)
	}

	return &keycloakAuthenticator{
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		jwks:          kf,
		nameClaimType: orDefault(cfg.NameClaimType, DefaultNameClaimType),
		roleClaimType: orDefault(cfg.RoleClaimType, DefaultRoleClaimType),
	}, nil
}

func (a *keycloakAuthenticator) Scheme() string {
	return BearerScheme
}

func (a *keycloakAuthenticator) Authenticate(_ context.Context, r *http.Request) (Result, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return NoResult(), nil
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	if tokenStr == "" {
		return NoResult(), nil
	}

	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{jwt.WithLeeway(5 * time.Second)}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, a.jwks.Keyfunc, opts...)
	if err != nil || !token.Valid {
		return Fail(ReasonInvalidToken), nil
	}

	subject := stringClaim(claims, "sub")
	if subject == "" {
		return Fail(ReasonInvalidToken), nil
	}

	principalClaims := []Claim{{Type: ClaimTypeNameIdentifier, Value: subject}}
	if name := stringClaim(claims, "preferred_username"); name != "" {
		principalClaims = append(principalClaims, Claim{Type: a.nameClaimType, Value: name})
	}
	for _, role := range realmRoles(claims) {
		principalClaims = append(principalClaims, Claim{Type: a.roleClaimType, Value: role})
	}
	if issuer := stringClaim(claims, "iss"); issuer != "" {
		principalClaims = append(principalClaims, Claim{Type: "iss", Value: issuer})
	}

	return Success(Principal{
		Scheme:        BearerScheme,
		Claims:        principalClaims,
		NameClaimType: a.nameClaimType,
		RoleClaimType: a.roleClaimType,
	}), nil
}

func probeJWKS(ctx context.Context, jwksURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return value
}

// realmRoles reads Keycloak's realm_access.roles claim.
func realmRoles(claims jwt.MapClaims) []string {
	access, ok := claims["realm_access"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := access["roles"].([]any)
	if !ok {
		return nil
	}

	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if role, ok := r.(string); ok && role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
