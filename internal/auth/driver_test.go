package auth

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

func testPrincipal() Principal {
	return Principal{
		Scheme: APIKeyScheme,
		Claims: []Claim{
			{Type: ClaimTypeNameIdentifier, Value: "u1"},
			{Type: "quota", Value: "42"},
			{Type: "ratio", Value: "0.5"},
			{Type: "beta", Value: "TRUE"},
			{Type: "legacy", Value: "1"},
			{Type: "quota", Value: "7"},
		},
	}
}

func TestPrincipalFromContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("expected no principal in empty context")
	}

	ctx := WithPrincipal(context.Background(), testPrincipal())
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		t.Fatal("expected principal in context")
	}
	if principal.UserID() != "u1" {
		t.Fatalf("unexpected user id: %q", principal.UserID())
	}
}

func TestSecurityDriverAddOrUpdateClaimReplacesFirstMatch(t *testing.T) {
	ctx := WithPrincipal(context.Background(), testPrincipal())
	driver, ok := DriverFromContext(ctx)
	if !ok {
		t.Fatal("expected driver in context")
	}

	driver.AddOrUpdateClaim("quota", "100")

	principal, _ := PrincipalFromContext(ctx)
	var quotas []string
	for _, c := range principal.Claims {
		if c.Type == "quota" {
			quotas = append(quotas, c.Value)
		}
	}
	if !slices.Equal(quotas, []string{"7", "100"}) {
		t.Fatalf("unexpected quota claims: %v", quotas)
	}

	driver.AddOrUpdateClaim("tenant", "acme")
	if value, ok := driver.ClaimValue("tenant"); !ok || value != "acme" {
		t.Fatalf("expected tenant claim, got %q %v", value, ok)
	}
	if !driver.HasClaim("tenant") {
		t.Fatal("expected HasClaim to report the new claim")
	}
}

func TestSecurityDriverDoesNotMutateOriginalPrincipal(t *testing.T) {
	original := testPrincipal()
	ctx := WithPrincipal(context.Background(), original)
	driver, _ := DriverFromContext(ctx)

	driver.AddOrUpdateClaim(ClaimTypeNameIdentifier, "u2")

	if original.UserID() != "u1" {
		t.Fatalf("expected original principal untouched, got %q", original.UserID())
	}
}

func TestSecurityDriverConcurrentAccess(t *testing.T) {
	ctx := WithPrincipal(context.Background(), testPrincipal())
	driver, _ := DriverFromContext(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			driver.AddOrUpdateClaim("counter", "x")
		}()
		go func() {
			defer wg.Done()
			_ = driver.HasClaim("counter")
		}()
	}
	wg.Wait()

	count := 0
	for _, c := range driver.Principal().Claims {
		if c.Type == "counter" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one counter claim, got %d", count)
	}
}

func TestTypedClaimGetters(t *testing.T) {
	p := testPrincipal()

	if n, err := ClaimInt(p, "quota"); err != nil || n != 42 {
		t.Fatalf("ClaimInt: %d %v", n, err)
	}
	if n, err := ClaimInt64(p, "quota"); err != nil || n != 42 {
		t.Fatalf("ClaimInt64: %d %v", n, err)
	}
	if f, err := ClaimFloat64(p, "ratio"); err != nil || f != 0.5 {
		t.Fatalf("ClaimFloat64: %v %v", f, err)
	}
	if b, err := ClaimBool(p, "beta"); err != nil || !b {
		t.Fatalf("ClaimBool(beta): %v %v", b, err)
	}
	if b, err := ClaimBool(p, "legacy"); err != nil || !b {
		t.Fatalf("ClaimBool(legacy): %v %v", b, err)
	}
	if b, err := ClaimBool(p, "ratio"); err != nil || b {
		t.Fatalf("ClaimBool(ratio): %v %v", b, err)
	}
	if s, err := ClaimString(p, ClaimTypeNameIdentifier); err != nil || s != "u1" {
		t.Fatalf("ClaimString: %q %v", s, err)
	}
}

func TestTypedClaimGettersErrors(t *testing.T) {
	p := testPrincipal()

	if _, err := ClaimInt(p, "missing"); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if _, err := ClaimInt(p, "ratio"); err == nil || errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestResultKindString(t *testing.T) {
	cases := map[ResultKind]string{
		ResultNone:    "none",
		ResultFailure: "failure",
		ResultSuccess: "success",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Fatalf("expected %q, got %q", want, kind.String())
		}
	}
}
