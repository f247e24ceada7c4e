package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/domain"
	apihttp "github.com/Flarenzy/keygate/internal/http"
)

const (
	shutdownTimeout  = 5 * time.Second
	metricsNamespace = "keygate"
)

func Run(ctx context.Context, cfg Config) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}
	return Serve(ctx, cfg, listener)
}

// Serve builds the service and serves on listener until ctx is cancelled.
// Storage and identity provider failures surface before the listener is used.
func Serve(ctx context.Context, cfg Config, listener net.Listener) error {
	logger := newLogger(cfg.LogLevel)

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	keyStore, invalidator, closeCache, err := withCache(ctx, cfg, logger, store.store)
	if err != nil {
		return err
	}
	defer closeCache()

	metrics := auth.NewMetrics(metricsNamespace)
	authenticator, err := buildAuthenticator(ctx, cfg, logger, metrics, keyStore)
	if err != nil {
		return err
	}

	var keys domain.KeyService
	if store.keys != nil {
		keys = domain.NewLoggingKeyService(logger, domain.NewKeyService(store.keys, invalidator))
	}

	api := apihttp.NewAPI(logger, store.health, keys, authenticator)
	api.Metrics = metrics.Registry()

	server := &http.Server{
		Handler:      api.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", listener.Addr().String(), "key_store", cfg.KeyStore)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// buildAuthenticator chains the API key scheme with the bearer scheme when
// OIDC is enabled. Each scheme is logged and instrumented on its own.
func buildAuthenticator(ctx context.Context, cfg Config, logger *slog.Logger, metrics *auth.Metrics, store auth.KeyStore) (auth.Authenticator, error) {
	apiKey, err := auth.NewAPIKeyAuthenticator(store, cfg.APIKey)
	if err != nil {
		return nil, err
	}

	bearer, err := newAuthenticator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return auth.Chain(
		decorate(logger, metrics, apiKey),
		decorate(logger, metrics, bearer),
	), nil
}

func decorate(logger *slog.Logger, metrics *auth.Metrics, a auth.Authenticator) auth.Authenticator {
	if a == nil {
		return nil
	}
	return auth.NewInstrumentedAuthenticator(metrics, auth.NewLoggingAuthenticator(logger, a))
}

// newAuthenticator returns the Keycloak bearer authenticator, or nil when
// OIDC is disabled.
func newAuthenticator(ctx context.Context, cfg Config) (auth.Authenticator, error) {
	return auth.NewKeycloakAuthenticator(ctx, auth.KeycloakConfig{
		Enabled:       cfg.AuthEnabled,
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		JWKSURL:       cfg.JWKSURL,
		NameClaimType: cfg.APIKey.NameClaimType,
		RoleClaimType: cfg.APIKey.RoleClaimType,
	})
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
