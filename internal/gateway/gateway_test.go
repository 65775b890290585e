package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"herre/pkg/config"
	"herre/pkg/defaultuser"
	"herre/pkg/fakts"
	"herre/pkg/grants"
	"herre/pkg/identity"
	"herre/pkg/problems"
	"herre/pkg/settings"
	"herre/pkg/token"
)

const endpointKey = "lok.userinfo_url"

type env struct {
	gw       *httptest.Server
	idp      *httptest.Server
	source   *fakts.MemorySource
	settings *settings.MemoryBackend
}

// idpHandler answers like an OIDC userinfo endpoint that accepts "abc".
func idpHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer abc" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"sub":"u-1","preferred_username":"alice","email":"alice@example.com"}`)
}

func newEnv(t *testing.T, cfg config.Config, reg *grants.Registry, grantCfg grants.Config) *env {
	t.Helper()
	idp := httptest.NewTLSServer(http.HandlerFunc(idpHandler))
	t.Cleanup(idp.Close)

	source := fakts.NewMemorySource(map[string]any{"lok": map[string]any{"userinfo_url": idp.URL + "/userinfo"}})
	backend := settings.NewMemoryBackend()
	log := zap.NewNop().Sugar()
	fetcher, err := identity.NewFetcher[identity.User](source, endpointKey, identity.WithHTTPClient(idp.Client()), identity.WithLogger(log))
	require.NoError(t, err)

	app := New(cfg, log, Deps{
		Fetcher:     fetcher,
		Store:       defaultuser.NewStore[identity.User](backend, source, endpointKey, defaultuser.WithLogger(log)),
		Grants:      reg,
		GrantConfig: grantCfg,
	})
	gw := httptest.NewServer(app.Handler())
	t.Cleanup(gw.Close)
	return &env{gw: gw, idp: idp, source: source, settings: backend}
}

func (e *env) do(t *testing.T, method, path, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.gw.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.gw.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{}, nil, grants.Config{})

	resp := e.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp = e.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "herre_identity_fetch_duration_seconds")
}

func TestMe(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{}, nil, grants.Config{})

	resp := e.do(t, http.MethodGet, "/v1/me", "abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	u := decode[identity.User](t, resp)
	assert.Equal(t, "u-1", u.Sub)
	assert.Equal(t, "alice", u.DisplayName())

	resp = e.do(t, http.MethodGet, "/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		mutate     func(e *env)
		bearer     string
		wantStatus int
		wantSlug   string
	}{
		{
			name:       "token rejected by endpoint",
			bearer:     "wrong",
			wantStatus: http.StatusUnauthorized,
			wantSlug:   problems.IdentityRejected,
		},
		{
			name:       "endpoint not configured",
			mutate:     func(e *env) { e.source.Delete("lok") },
			bearer:     "abc",
			wantStatus: http.StatusServiceUnavailable,
			wantSlug:   problems.ConfigUnresolved,
		},
		{
			name:       "endpoint unreachable",
			mutate:     func(e *env) { e.source.Set("lok", map[string]any{"userinfo_url": "https://127.0.0.1:1"}) },
			bearer:     "abc",
			wantStatus: http.StatusBadGateway,
			wantSlug:   problems.IdentityUnreachable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t, config.Config{}, nil, grants.Config{})
			if tt.mutate != nil {
				tt.mutate(e)
			}
			resp := e.do(t, http.MethodGet, "/v1/me", tt.bearer)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			p := decode[problems.Problem](t, resp)
			assert.True(t, strings.HasSuffix(p.Type, "/"+tt.wantSlug), p.Type)
			assert.Equal(t, "/v1/me", p.Instance)
		})
	}
}

func TestDefaultUserLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{}, nil, grants.Config{})

	resp := e.do(t, http.MethodGet, "/v1/default-user", "abc")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodPut, "/v1/default-user", "abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/default-user", "abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sub":"u-1"`)
	assert.NotContains(t, string(raw), "access_token", "stored secrets are not echoed")

	// the blob holds the token
	blob, ok, err := e.settings.Value(t.Context(), defaultuser.DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, blob, `"access_token":"abc"`)
	assert.Contains(t, blob, e.idp.URL+"/userinfo")

	resp = e.do(t, http.MethodDelete, "/v1/default-user", "abc")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, http.MethodGet, "/v1/default-user", "abc")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPutDefaultUserRejectedToken(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{}, nil, grants.Config{})

	resp := e.do(t, http.MethodPut, "/v1/default-user", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_, ok, err := e.settings.Value(t.Context(), defaultuser.DefaultStorageKey)
	require.NoError(t, err)
	assert.False(t, ok, "nothing stored for a rejected token")
}

func TestListGrants(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{}, grants.DefaultRegistry(), grants.Config{})

	resp := e.do(t, http.MethodGet, "/v1/grants", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string][]grants.GrantType](t, resp)
	assert.Equal(t, []grants.GrantType{grants.ClientCredentials, grants.Static}, got["grant_types"])
}

func TestGrantToken(t *testing.T) {
	t.Parallel()
	reg := grants.DefaultRegistry()
	cfg := config.Config{ExposeGrantTokens: true}
	e := newEnv(t, cfg, reg, grants.Config{Token: token.Token{AccessToken: "static-token", TokenType: "Bearer"}})

	resp := e.do(t, http.MethodPost, "/v1/grants/static/token", "abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "static-token", decode[token.Token](t, resp).AccessToken)

	// known type without a builder
	resp = e.do(t, http.MethodPost, "/v1/grants/authorization-code/token", "abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// not a grant type at all
	resp = e.do(t, http.MethodPost, "/v1/grants/device-code/token", "abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// builder refuses its config
	resp = e.do(t, http.MethodPost, "/v1/grants/client-credentials/token", "abc")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/v1/grants/static/token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGrantTokenRouteDisabledByDefault(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{}, grants.DefaultRegistry(), grants.Config{Token: token.Token{AccessToken: "static-token"}})
	resp := e.do(t, http.MethodPost, "/v1/grants/static/token", "abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGrantTokenRequiresVerifiedScope(t *testing.T) {
	t.Parallel()
	cfg := config.Config{ExposeGrantTokens: true, GrantTokenScope: "herre:grants"}
	e := newEnv(t, cfg, grants.DefaultRegistry(), grants.Config{Token: token.Token{AccessToken: "static-token"}})
	resp := e.do(t, http.MethodPost, "/v1/grants/static/token", "abc")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOpenAPI(t *testing.T) {
	t.Parallel()
	e := newEnv(t, config.Config{ExposeGrantTokens: true}, grants.DefaultRegistry(), grants.Config{})

	resp := e.do(t, http.MethodGet, "/.well-known/openapi.json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[map[string]any](t, resp)
	paths := doc["paths"].(map[string]any)
	for _, p := range []string{"/healthz", "/v1/me", "/v1/default-user", "/v1/grants", "/v1/grants/{type}/token"} {
		assert.Contains(t, paths, p)
	}
}
