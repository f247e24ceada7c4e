package auth

import (
	"context"
	"log/slog"
	"net/http"
)

type loggingAuthenticator struct {
	logger *slog.Logger
	next   Authenticator
}

func NewLoggingAuthenticator(logger *slog.Logger, next Authenticator) Authenticator {
	if logger == nil || next == nil {
		return next
	}

	return &loggingAuthenticator{
		logger: logger,
		next:   next,
	}
}

func (a *loggingAuthenticator) Scheme() string {
	return a.next.Scheme()
}

func (a *loggingAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Result, error) {
	result, err := a.next.Authenticate(ctx, r)
	if err != nil {
		a.logger.ErrorContext(ctx, "authentication failed", "scheme", a.next.Scheme(), "path", r.URL.Path, "err", err.Error())
		return result, err
	}

	switch result.Kind() {
	case ResultNone:
		a.logger.DebugContext(ctx, "no credential supplied", "scheme", a.next.Scheme(), "path", r.URL.Path)
	case ResultFailure:
		a.logger.DebugContext(ctx, "credential rejected", "scheme", a.next.Scheme(), "path", r.URL.Path, "reason", result.FailureReason())
	case ResultSuccess:
		principal, _ := result.Principal()
		a.logger.DebugContext(ctx, "authenticated", "scheme", principal.Scheme, "user_id", principal.UserID())
	}
	return result, nil
}
