package auth

import "slices"

// ClaimTypeNameIdentifier identifies the subject of a principal.
const ClaimTypeNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"

const (
	DefaultNameClaimType = "name"
	DefaultRoleClaimType = "role"
)

type Claim struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// Principal is the identity produced by a successful authentication.
// Claims keep the order in which the scheme produced them.
type Principal struct {
	Scheme        string
	Claims        []Claim
	NameClaimType string
	RoleClaimType string
}

func (p Principal) FindFirst(claimType string) (string, bool) {
	for _, c := range p.Claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

func (p Principal) HasClaim(claimType string) bool {
	_, ok := p.FindFirst(claimType)
	return ok
}

func (p Principal) UserID() string {
	value, _ := p.FindFirst(ClaimTypeNameIdentifier)
	return value
}

func (p Principal) Name() string {
	value, _ := p.FindFirst(p.nameClaimType())
	return value
}

func (p Principal) Roles() []string {
	roleType := p.roleClaimType()
	var roles []string
	for _, c := range p.Claims {
		if c.Type == roleType {
			roles = append(roles, c.Value)
		}
	}
	return roles
}

func (p Principal) IsInRole(role string) bool {
	return slices.Contains(p.Roles(), role)
}

func (p Principal) clone() Principal {
	p.Claims = slices.Clone(p.Claims)
	return p
}

func (p Principal) nameClaimType() string {
	if p.NameClaimType == "" {
		return DefaultNameClaimType
	}
	return p.NameClaimType
}

func (p Principal) roleClaimType() string {
	if p.RoleClaimType == "" {
		return DefaultRoleClaimType
	}
	return p.RoleClaimType
}
