//go:build integration

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	app "github.com/Flarenzy/keygate/internal/app"
	"github.com/Flarenzy/keygate/internal/auth"
	appdb "github.com/Flarenzy/keygate/internal/db"
	sqlcdb "github.com/Flarenzy/keygate/internal/db/sqlc"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresPort   = "5432/tcp"
	redisPort      = "6379/tcp"
	keycloakPort   = "8080/tcp"
	testRealm      = "keygate-integration"
	testClientID   = "keygate-test"
	testUsername   = "integration-admin"
	testPassword   = "integration-password"
	testAudience   = "keygate-api"
	containerReady = 2 * time.Minute
	httpReady      = 30 * time.Second
)

type integrationSuite struct {
	httpClient *http.Client
	baseURL    string
	issuerURL  string
	dsn        string

	postgres testcontainers.Container
	redis    testcontainers.Container
	keycloak testcontainers.Container

	apiCancel context.CancelFunc
	apiErrCh  chan error
}

// credential is sent either as an API key header or a bearer token.
type credential struct {
	apiKey string
	token  string
}

type claimResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type meResponse struct {
	Scheme string          `json:"scheme"`
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Roles  []string        `json:"roles"`
	Claims []claimResponse `json:"claims"`
}

type keyResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Prefix    string          `json:"prefix"`
	Claims    []claimResponse `json:"claims"`
	RevokedAt *time.Time      `json:"revoked_at"`
	Key       string          `json:"key"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

var (
	suiteOnce   sync.Once
	suite       *integrationSuite
	suiteErr    error
	suiteClosed bool
)

func TestMain(m *testing.M) {
	code := m.Run()

	if suite != nil && !suiteClosed {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Minute)
		defer closeCancel()
		if err := suite.Close(closeCtx); err != nil {
			fmt.Printf("integration teardown failed: %v\n", err)
			if code == 0 {
				code = 1
			}
		}
		suiteClosed = true
	}

	os.Exit(code)
}

func TestAPIStartupFailsWhenJWKSIsUnavailable(t *testing.T) {
	s := mustSuite(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = app.Serve(ctx, app.Config{
		KeyStore:     app.StorePostgres,
		DSN:          s.dsn,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		APIKey:       auth.DefaultAPIKeyOptions(),
		AuthEnabled:  true,
		Issuer:       "http://127.0.0.1:1/realms/does-not-exist",
		JWKSURL:      "http://127.0.0.1:1/realms/does-not-exist/protocol/openid-connect/certs",
		Audience:     testAudience,
	}, listener)
	if err == nil {
		t.Fatal("expected startup to fail when jwks cannot be reached")
	}
}

func TestInfrastructureAndAuthBoundaries(t *testing.T) {
	s := mustSuite(t)

	resp, err := s.get(t, "/healthz", credential{})
	if err != nil {
		t.Fatalf("healthz request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", resp.StatusCode)
	}
	if body := s.readBody(t, resp); strings.TrimSpace(body) != "ok" {
		t.Fatalf("expected ok body, got %q", body)
	}

	resp, err = s.get(t, "/readyz", credential{})
	if err != nil {
		t.Fatalf("readyz request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /readyz, got %d", resp.StatusCode)
	}
	s.closeBody(t, resp)

	resp, err = s.get(t, "/api/v1/me", credential{})
	if err != nil {
		t.Fatalf("unauthenticated request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != "API Key, Bearer" {
		t.Fatalf("expected both schemes advertised, got %q", got)
	}
	s.closeBody(t, resp)

	resp, err = s.get(t, "/api/v1/me", credential{apiKey: "kg_not-a-real-key"})
	if err != nil {
		t.Fatalf("invalid-key request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid key, got %d", resp.StatusCode)
	}
	var keyErr errorResponse
	s.decodeJSON(t, resp, &keyErr)
	if keyErr.Error != auth.ReasonInvalidAPIKey {
		t.Fatalf("unexpected invalid key error: %q", keyErr.Error)
	}

	resp, err = s.get(t, "/api/v1/me", credential{token: "not-a-token"})
	if err != nil {
		t.Fatalf("invalid-token request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.StatusCode)
	}
	var tokenErr errorResponse
	s.decodeJSON(t, resp, &tokenErr)
	if tokenErr.Error != auth.ReasonInvalidToken {
		t.Fatalf("unexpected invalid token error: %q", tokenErr.Error)
	}

	resp, err = s.get(t, "/api/v1/me", credential{token: s.mustToken(t)})
	if err != nil {
		t.Fatalf("authenticated request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for bearer request, got %d", resp.StatusCode)
	}
	var me meResponse
	s.decodeJSON(t, resp, &me)
	if me.Scheme != auth.BearerScheme {
		t.Fatalf("expected bearer scheme, got %q", me.Scheme)
	}
	if me.Name != testUsername {
		t.Fatalf("expected name %q, got %q", testUsername, me.Name)
	}
	if !contains(me.Roles, "admin") {
		t.Fatalf("expected admin role, got %v", me.Roles)
	}

	resp, err = s.get(t, "/metrics", credential{})
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
	if body := s.readBody(t, resp); !strings.Contains(body, "keygate_auth_attempts_total") {
		t.Fatal("expected auth attempt counters in metrics output")
	}
}

func TestKeyLifecycleJourney(t *testing.T) {
	s := mustSuite(t)
	admin := credential{token: s.mustToken(t)}

	createResp, err := s.jsonRequest(t, http.MethodPost, "/api/v1/keys", admin, map[string]any{
		"name":    "reporting job",
		"user_id": "svc-reporting",
		"claims": []map[string]string{
			{"type": "role", "value": "reader"},
			{"type": "tenant", "value": "t-42"},
		},
	})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating key, got %d", createResp.StatusCode)
	}

	var created keyResponse
	s.decodeJSON(t, createResp, &created)
	if created.ID == "" || created.Key == "" {
		t.Fatal("expected id and plaintext key in create response")
	}
	if !strings.HasPrefix(created.Key, created.Prefix) {
		t.Fatalf("expected key to start with prefix %q", created.Prefix)
	}
	service := credential{apiKey: created.Key}

	// Twice, so the second lookup is served from Redis.
	for i := 0; i < 2; i++ {
		meResp, err := s.get(t, "/api/v1/me", service)
		if err != nil {
			t.Fatalf("me with new key: %v", err)
		}
		if meResp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 with new key, got %d", meResp.StatusCode)
		}
		var me meResponse
		s.decodeJSON(t, meResp, &me)
		if me.UserID != "svc-reporting" || me.Scheme != auth.APIKeyScheme {
			t.Fatalf("unexpected principal %+v", me)
		}
		if len(me.Claims) != 3 || me.Claims[1].Value != "reader" || me.Claims[2].Value != "t-42" {
			t.Fatalf("expected claims in issue order, got %+v", me.Claims)
		}
	}

	listResp, err := s.get(t, "/api/v1/keys", service)
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 listing keys, got %d", listResp.StatusCode)
	}
	var listed []keyResponse
	s.decodeJSON(t, listResp, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].Key != "" {
		t.Fatalf("unexpected key list %+v", listed)
	}

	forbiddenResp, err := s.get(t, "/api/v1/keys?user_id="+url.QueryEscape(testUsername), service)
	if err != nil {
		t.Fatalf("list other user's keys: %v", err)
	}
	if forbiddenResp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 listing another user's keys, got %d", forbiddenResp.StatusCode)
	}
	s.closeBody(t, forbiddenResp)

	revokeResp, err := s.request(t, http.MethodDelete, "/api/v1/keys/"+created.ID, admin, nil)
	if err != nil {
		t.Fatalf("revoke key: %v", err)
	}
	if revokeResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 revoking key, got %d", revokeResp.StatusCode)
	}
	s.closeBody(t, revokeResp)

	revokedResp, err := s.get(t, "/api/v1/me", service)
	if err != nil {
		t.Fatalf("me with revoked key: %v", err)
	}
	if revokedResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with revoked key, got %d", revokedResp.StatusCode)
	}
	s.closeBody(t, revokedResp)

	getResp, err := s.get(t, "/api/v1/keys/"+created.ID, admin)
	if err != nil {
		t.Fatalf("get revoked key: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 reading revoked key, got %d", getResp.StatusCode)
	}
	var revoked keyResponse
	s.decodeJSON(t, getResp, &revoked)
	if revoked.RevokedAt == nil {
		t.Fatal("expected revoked_at to be set")
	}

	againResp, err := s.request(t, http.MethodDelete, "/api/v1/keys/"+created.ID, admin, nil)
	if err != nil {
		t.Fatalf("revoke key again: %v", err)
	}
	if againResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 revoking twice, got %d", againResp.StatusCode)
	}
	s.closeBody(t, againResp)
}

func TestKeySeededThroughQueriesAuthenticates(t *testing.T) {
	s := mustSuite(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := appdb.NewPool(ctx, s.dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	defer pool.Close()

	const seeded = "kg_seeded-integration-key"
	_, err = sqlcdb.New(pool).CreateAPIKey(ctx, sqlcdb.CreateAPIKeyParams{
		UserID:  "seeded-user",
		Name:    "seeded",
		Prefix:  seeded[:9],
		KeyHash: auth.HashKey(seeded),
		Claims:  []byte(`[{"type":"role","value":"admin"}]`),
	})
	if err != nil {
		t.Fatalf("seed key: %v", err)
	}

	resp, err := s.get(t, "/api/v1/me", credential{apiKey: seeded})
	if err != nil {
		t.Fatalf("me with seeded key: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with seeded key, got %d", resp.StatusCode)
	}
	var me meResponse
	s.decodeJSON(t, resp, &me)
	if me.UserID != "seeded-user" || !contains(me.Roles, "admin") {
		t.Fatalf("unexpected principal %+v", me)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func mustSuite(t *testing.T) *integrationSuite {
	t.Helper()

	suiteOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		suite, suiteErr = newIntegrationSuite(ctx)
	})
	if suiteErr != nil {
		t.Fatalf("integration setup failed: %v", suiteErr)
	}
	if suite == nil {
		t.Fatal("integration suite was not initialized")
	}

	return suite
}

func newIntegrationSuite(ctx context.Context) (*integrationSuite, error) {
	if _, err := exec.LookPath("goose"); err != nil {
		return nil, fmt.Errorf("goose not found in PATH: %w", err)
	}
	if err := os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true"); err != nil {
		return nil, fmt.Errorf("disable testcontainers ryuk: %w", err)
	}

	s := &integrationSuite{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	var err error
	s.postgres, err = startPostgres(ctx)
	if err != nil {
		return nil, err
	}

	s.dsn, err = buildPostgresDSN(ctx, s.postgres)
	if err != nil {
		_ = s.terminate(ctx)
		return nil, err
	}

	if err := runGooseMigrations(ctx, s.dsn); err != nil {
		_ = s.terminate(ctx)
		return nil, err
	}

	var redisAddr string
	s.redis, redisAddr, err = startRedis(ctx)
	if err != nil {
		_ = s.terminate(ctx)
		return nil, err
	}

	s.keycloak, s.issuerURL, err = startKeycloak(ctx)
	if err != nil {
		_ = s.terminate(ctx)
		return nil, err
	}

	if err := s.startAPI(ctx, redisAddr); err != nil {
		_ = s.terminate(ctx)
		return nil, err
	}

	return s, nil
}

func (s *integrationSuite) startAPI(ctx context.Context, redisAddr string) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for api: %w", err)
	}

	s.baseURL = "http://" + listener.Addr().String()
	apiCtx, apiCancel := context.WithCancel(context.Background())
	s.apiCancel = apiCancel
	s.apiErrCh = make(chan error, 1)

	go func() {
		s.apiErrCh <- app.Serve(apiCtx, app.Config{
			KeyStore:     app.StorePostgres,
			DSN:          s.dsn,
			RedisAddr:    redisAddr,
			CacheTTL:     time.Minute,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			APIKey:       auth.DefaultAPIKeyOptions(),
			AuthEnabled:  true,
			Issuer:       s.issuerURL,
			Audience:     testAudience,
			JWKSURL:      s.issuerURL + "/protocol/openid-connect/certs",
		}, listener)
	}()

	return s.waitForAPIReady(ctx)
}

func (s *integrationSuite) waitForAPIReady(ctx context.Context) error {
	deadline := time.Now().Add(httpReady)
	for time.Now().Before(deadline) {
		select {
		case err := <-s.apiErrCh:
			if err != nil {
				return fmt.Errorf("api exited before becoming ready: %w", err)
			}
			return errors.New("api exited before becoming ready")
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
		if err != nil {
			return err
		}

		resp, err := s.httpClient.Do(req)
		if err == nil {
			s.closeBodyNoTest(resp)
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("timed out waiting for api at %s", s.baseURL)
}

func (s *integrationSuite) Close(ctx context.Context) error {
	var errs []error

	if s.apiCancel != nil {
		s.apiCancel()
		select {
		case err := <-s.apiErrCh:
			if err != nil {
				errs = append(errs, err)
			}
		case <-time.After(10 * time.Second):
			errs = append(errs, errors.New("timed out waiting for api shutdown"))
		}
	}

	if err := s.terminate(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *integrationSuite) terminate(ctx context.Context) error {
	var errs []error
	for _, c := range []testcontainers.Container{s.keycloak, s.redis, s.postgres} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func startPostgres(ctx context.Context) (testcontainers.Container, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_DB":       "keygate",
			"POSTGRES_USER":     "keygate",
			"POSTGRES_PASSWORD": "keygate",
		},
		WaitingFor: wait.ForListeningPort(postgresPort).WithStartupTimeout(containerReady),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	return container, nil
}

func buildPostgresDSN(ctx context.Context, container testcontainers.Container) (string, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("postgres host: %w", err)
	}
	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		return "", fmt.Errorf("postgres mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://keygate:keygate@%s:%s/keygate?sslmode=disable", host, port.Port()), nil
}

func startRedis(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{redisPort},
		WaitingFor:   wait.ForListeningPort(redisPort).WithStartupTimeout(containerReady),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("redis host: %w", err)
	}
	port, err := container.MappedPort(ctx, redisPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("redis mapped port: %w", err)
	}

	return container, net.JoinHostPort(host, port.Port()), nil
}

func runGooseMigrations(ctx context.Context, dsn string) error {
	migrationsDir, err := repoPath("db", "migrations")
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "goose", "-dir", migrationsDir, "postgres", dsn, "up")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("goose migrations failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func startKeycloak(ctx context.Context) (testcontainers.Container, string, error) {
	realmPath, err := repoPath("integration", "api", "testdata", "keygate-integration-realm.json")
	if err != nil {
		return nil, "", fmt.Errorf("resolve realm fixture: %w", err)
	}

	req := testcontainers.ContainerRequest{
		Image:        "quay.io/keycloak/keycloak:24.0.5",
		ExposedPorts: []string{keycloakPort},
		Env: map[string]string{
			"KEYCLOAK_ADMIN":          "admin",
			"KEYCLOAK_ADMIN_PASSWORD": "admin",
		},
		Cmd: []string{"start-dev", "--http-port=8080", "--import-realm"},
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      realmPath,
				ContainerFilePath: "/opt/keycloak/data/import/keygate-integration-realm.json",
				FileMode:          0o644,
			},
		},
		WaitingFor: wait.ForListeningPort(keycloakPort).WithStartupTimeout(containerReady),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("start keycloak container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("keycloak host: %w", err)
	}
	port, err := container.MappedPort(ctx, keycloakPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", fmt.Errorf("keycloak mapped port: %w", err)
	}

	issuerURL := fmt.Sprintf("http://%s:%s/realms/%s", host, port.Port(), testRealm)
	if err := waitForHTTP200(ctx, issuerURL+"/.well-known/openid-configuration"); err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}

	return container, issuerURL, nil
}

func waitForHTTP200(ctx context.Context, endpoint string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	deadline := time.Now().Add(httpReady)

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("timed out waiting for %s", endpoint)
}

func (s *integrationSuite) mustToken(t *testing.T) string {
	t.Helper()

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {testClientID},
		"username":   {testUsername},
		"password":   {testPassword},
	}

	req, err := http.NewRequest(http.MethodPost, s.issuerURL+"/protocol/openid-connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		t.Fatalf("fetch token: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		body := s.readBody(t, resp)
		t.Fatalf("expected 200 from token endpoint, got %d: %s", resp.StatusCode, body)
	}

	var token tokenResponse
	s.decodeJSON(t, resp, &token)
	if token.AccessToken == "" {
		t.Fatal("expected access token in token response")
	}

	return token.AccessToken
}

func (s *integrationSuite) get(t *testing.T, path string, cred credential) (*http.Response, error) {
	t.Helper()
	return s.request(t, http.MethodGet, path, cred, nil)
}

func (s *integrationSuite) jsonRequest(t *testing.T, method string, path string, cred credential, payload any) (*http.Response, error) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	return s.request(t, method, path, cred, bytes.NewReader(body))
}

func (s *integrationSuite) request(t *testing.T, method string, path string, cred credential, body io.Reader) (*http.Response, error) {
	t.Helper()

	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred.apiKey != "" {
		req.Header.Set(auth.DefaultAPIKeyHeader, cred.apiKey)
	}
	if cred.token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.token)
	}

	return s.httpClient.Do(req)
}

func (s *integrationSuite) decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer s.closeBody(t, resp)

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		t.Fatalf("expected json response, got %q", ct)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (s *integrationSuite) readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer s.closeBody(t, resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func (s *integrationSuite) closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("close body: %v", err)
	}
}

func (s *integrationSuite) closeBodyNoTest(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func repoPath(parts ...string) (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("unable to resolve current file path")
	}

	allParts := append([]string{filepath.Dir(currentFile), "..", ".."}, parts...)
	return filepath.Clean(filepath.Join(allParts...)), nil
}
