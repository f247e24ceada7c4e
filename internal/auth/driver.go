package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var ErrClaimNotFound = errors.New("claim not found")

// SecurityDriver gives request handlers read and write access to the claims
// of the authenticated principal. It is safe for concurrent use.
type SecurityDriver struct {
	mu        sync.RWMutex
	principal Principal
}

func newSecurityDriver(principal Principal) *SecurityDriver {
	return &SecurityDriver{principal: principal.clone()}
}

func (d *SecurityDriver) Principal() Principal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.principal.clone()
}

func (d *SecurityDriver) HasClaim(claimType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.principal.HasClaim(claimType)
}

func (d *SecurityDriver) ClaimValue(claimType string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.principal.FindFirst(claimType)
}

// AddOrUpdateClaim drops the first claim of claimType, if any, and appends
// the new value.
func (d *SecurityDriver) AddOrUpdateClaim(claimType, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := slices.IndexFunc(d.principal.Claims, func(c Claim) bool {
		return c.Type == claimType
	})
	if idx >= 0 {
		d.principal.Claims = slices.Delete(d.principal.Claims, idx, idx+1)
	}
	d.principal.Claims = append(d.principal.Claims, Claim{Type: claimType, Value: value})
}

// Typed claim getters. Each reads the first claim of the given type.

func ClaimString(p Principal, claimType string) (string, error) {
	value, ok := p.FindFirst(claimType)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrClaimNotFound, claimType)
	}
	return value, nil
}

func ClaimInt(p Principal, claimType string) (int, error) {
	value, err := ClaimString(p, claimType)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse claim %s: %w", claimType, err)
	}
	return n, nil
}

func ClaimInt64(p Principal, claimType string) (int64, error) {
	value, err := ClaimString(p, claimType)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse claim %s: %w", claimType, err)
	}
	return n, nil
}

func ClaimFloat64(p Principal, claimType string) (float64, error) {
	value, err := ClaimString(p, claimType)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse claim %s: %w", claimType, err)
	}
	return f, nil
}

// ClaimBool treats "true" (any case) and "1" as true and anything else as false.
func ClaimBool(p Principal, claimType string) (bool, error) {
	value, err := ClaimString(p, claimType)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(value, "true") || value == "1", nil
}
