package http

import (
	"fmt"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/domain"
	"github.com/google/uuid"
)

const (
	adminRole       = "admin"
	tenantClaimType = "tenant"
)

// resolveTargetUser picks the user a request acts on. Callers act on
// themselves unless they hold the admin role.
func resolveTargetUser(p auth.Principal, requested string) (string, error) {
	caller := p.UserID()
	if caller == "" {
		return "", fmt.Errorf("%w: principal has no user id", domain.ErrUnauthorized)
	}
	if requested == "" || requested == caller {
		return caller, nil
	}
	if !p.IsInRole(adminRole) {
		return "", fmt.Errorf("%w: acting on another user's keys", domain.ErrForbidden)
	}
	return requested, nil
}

// canAccessKey reports whether p may see or revoke key.
func canAccessKey(p auth.Principal, key domain.APIKey) bool {
	return key.UserID == p.UserID() || p.IsInRole(adminRole)
}

func validateKeyID(raw string) (domain.KeyID, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("%w: invalid key id", domain.ErrInvalidInput)
	}
	return domain.KeyID(raw), nil
}
