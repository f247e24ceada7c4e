package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type HealthChecker interface {
	Ping(context.Context) error
}

type API struct {
	Logger        *slog.Logger
	Health        HealthChecker
	Keys          domain.KeyService
	Authenticator auth.Authenticator
	// Metrics, when set, is served at /metrics.
	Metrics prometheus.Gatherer
}

// NewAPI wires the handlers. A nil authenticator turns authentication off;
// handlers that need a caller identity then answer 401.
func NewAPI(logger *slog.Logger, health HealthChecker, keys domain.KeyService, authenticator auth.Authenticator) *API {
	return &API{
		Logger:        logger,
		Health:        health,
		Keys:          keys,
		Authenticator: authenticator,
	}
}

func (a *API) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	if a.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(a.Metrics, promhttp.HandlerOpts{}))
	}
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("GET /api/v1/me", a.handleMe)
	mux.HandleFunc("GET /api/v1/keys", a.handleListKeys)
	mux.HandleFunc("POST /api/v1/keys", a.handleCreateKey)
	mux.HandleFunc("GET /api/v1/keys/{id}", a.handleGetKey)
	mux.HandleFunc("DELETE /api/v1/keys/{id}", a.handleRevokeKey)

	return a.authMiddleware(mux)
}
