package http

import (
	"time"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/domain"
)

// ClaimPayload is a single claim as exchanged with clients.
type ClaimPayload struct {
	Type  string `json:"type" example:"role"`
	Value string `json:"value" example:"reader"`
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	Scheme string         `json:"scheme" example:"API Key"`
	UserID string         `json:"user_id" example:"alice"`
	Name   string         `json:"name,omitempty" example:"Alice"`
	Tenant string         `json:"tenant,omitempty" example:"t-1"`
	Roles  []string       `json:"roles"`
	Claims []ClaimPayload `json:"claims"`
}

// KeyResponse is a stored key. It never carries the key itself.
type KeyResponse struct {
	ID        string         `json:"id" example:"5b0c2f43-6d8a-4a83-9b1c-1d8e0c6a2f11"`
	UserID    string         `json:"user_id" example:"alice"`
	Name      string         `json:"name" example:"ci pipeline"`
	Prefix    string         `json:"prefix" example:"kg_Q2xhdW"`
	Claims    []ClaimPayload `json:"claims"`
	CreatedAt time.Time      `json:"created_at" example:"2026-05-10T15:04:05Z"`
	UpdatedAt time.Time      `json:"updated_at" example:"2026-05-10T15:04:05Z"`
	RevokedAt *time.Time     `json:"revoked_at,omitempty" example:"2026-06-10T15:04:05Z"`
}

// CreatedKeyResponse is returned once, on creation, with the plaintext key.
type CreatedKeyResponse struct {
	KeyResponse
	Key string `json:"key" example:"kg_Q2xhdWRlIHdhcyBoZXJlIGFuZCBsZWZ0IGEga2V5"`
}

// CreateKeyRequest is the payload accepted when issuing a key. UserID
// defaults to the caller; issuing for someone else needs the admin role.
type CreateKeyRequest struct {
	Name   string         `json:"name" example:"ci pipeline" validate:"required"`
	UserID string         `json:"user_id,omitempty" example:"alice"`
	Claims []ClaimPayload `json:"claims,omitempty"`
}

// ErrorResponse is a simple envelope for error messages.
type ErrorResponse struct {
	Error string `json:"error" example:"key not found"`
}

func claimsToPayload(claims []auth.Claim) []ClaimPayload {
	out := make([]ClaimPayload, 0, len(claims))
	for _, c := range claims {
		out = append(out, ClaimPayload{Type: c.Type, Value: c.Value})
	}
	return out
}

func principalToResponse(p auth.Principal) MeResponse {
	roles := p.Roles()
	if roles == nil {
		roles = []string{}
	}
	return MeResponse{
		Scheme: p.Scheme,
		UserID: p.UserID(),
		Name:   p.Name(),
		Roles:  roles,
		Claims: claimsToPayload(p.Claims),
	}
}

func keyToResponse(k domain.APIKey) KeyResponse {
	return KeyResponse{
		ID:        string(k.ID),
		UserID:    k.UserID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		Claims:    claimsToPayload(k.Claims),
		CreatedAt: k.CreatedAt,
		UpdatedAt: k.UpdatedAt,
		RevokedAt: k.RevokedAt,
	}
}

func keysToResponse(keys []domain.APIKey) []KeyResponse {
	out := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyToResponse(k))
	}
	return out
}

func (r CreateKeyRequest) toInput(userID string) domain.CreateKeyInput {
	claims := make([]auth.Claim, 0, len(r.Claims))
	for _, c := range r.Claims {
		claims = append(claims, auth.Claim{Type: c.Type, Value: c.Value})
	}
	return domain.CreateKeyInput{
		UserID: userID,
		Name:   r.Name,
		Claims: claims,
	}
}
