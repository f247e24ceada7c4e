package auth

import (
	"context"
	"net/http"
)

// Authenticator resolves the credential carried by a request.
//
// A returned error means the scheme could not do its job (a key store or
// identity provider is unreachable); it is never used for a rejected
// credential, which is reported as a failure Result instead.
type Authenticator interface {
	Scheme() string
	Authenticate(ctx context.Context, r *http.Request) (Result, error)
}
