package auth

import (
	"context"
	"net/http"
	"strings"
)

type chain struct {
	authenticators []Authenticator
}

// Chain evaluates authenticators in order. The first success or failure is
// returned; a scheme that finds no credential hands over to the next one.
func Chain(authenticators ...Authenticator) Authenticator {
	out := make([]Authenticator, 0, len(authenticators))
	for _, a := range authenticators {
		if a != nil {
			out = append(out, a)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return &chain{authenticators: out}
}

func (c *chain) Scheme() string {
	schemes := make([]string, 0, len(c.authenticators))
	for _, a := range c.authenticators {
		schemes = append(schemes, a.Scheme())
	}
	return strings.Join(schemes, ", ")
}

func (c *chain) Authenticate(ctx context.Context, r *http.Request) (Result, error) {
	for _, a := range c.authenticators {
		result, err := a.Authenticate(ctx, r)
		if err != nil {
			return Result{}, err
		}
		if !result.None() {
			return result, nil
		}
	}
	return NoResult(), nil
}
