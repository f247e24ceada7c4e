package http

import (
	"net/http"
	"strings"

	"github.com/Flarenzy/keygate/internal/auth"
)

const (
	msgMissingCredentials = "missing credentials"
	msgInternalError      = "internal server error"
)

func isPublicPath(path string) bool {
	return path == "/healthz" ||
		path == "/readyz" ||
		path == "/metrics" ||
		strings.HasPrefix(path, "/swagger/")
}

func (a *API) authMiddleware(next http.Handler) http.Handler {
	if a.Authenticator == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		result, err := a.Authenticator.Authenticate(ctx, r)
		if err != nil {
			a.Logger.ErrorContext(ctx, "authenticating request", "path", r.URL.Path, "err", err.Error())
			a.respond(w, r, http.StatusInternalServerError, ErrorResponse{Error: msgInternalError})
			return
		}

		switch result.Kind() {
		case auth.ResultNone:
			w.Header().Set("WWW-Authenticate", a.Authenticator.Scheme())
			a.respond(w, r, http.StatusUnauthorized, ErrorResponse{Error: msgMissingCredentials})
			return
		case auth.ResultFailure:
			w.Header().Set("WWW-Authenticate", a.Authenticator.Scheme())
			a.respond(w, r, http.StatusUnauthorized, ErrorResponse{Error: result.FailureReason()})
			return
		}

		principal, _ := result.Principal()
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, principal)))
	})
}
