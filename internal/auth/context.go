package auth

import "context"

type driverContextKey struct{}

// WithPrincipal attaches a fresh SecurityDriver for principal to ctx.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, driverContextKey{}, newSecurityDriver(principal))
}

// PrincipalFromContext returns a snapshot of the principal attached to ctx,
// including claims added through the driver.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	driver, ok := DriverFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	return driver.Principal(), true
}

func DriverFromContext(ctx context.Context) (*SecurityDriver, bool) {
	driver, ok := ctx.Value(driverContextKey{}).(*SecurityDriver)
	return driver, ok
}
