package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/keyvote/internal/adapters/repository/jsonfile"
	"github.com/vncsmyrnk/keyvote/internal/app"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

const adminPassword = "s3cret"

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := jsonfile.NewStore(t.TempDir())
	require.NoError(t, err)

	hash, err := services.HashAdminPassword(adminPassword)
	require.NoError(t, err)

	a := app.NewWithStore(store, services.AuthConfig{
		JWTSecret:         []byte("handler-secret"),
		AdminPasswordHash: hash,
		VoterTokenTTL:     time.Hour,
	}, []byte("hash-secret"))

	server := httptest.NewServer(a.Handler())
	t.Cleanup(server.Close)
	return &testServer{Server: server, t: t}
}

// do sends body as JSON with an optional token and decodes the response.
func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) adminToken() string {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/admin/login", "", map[string]string{
		"username": "admin",
		"password": adminPassword,
	})
	require.Equal(s.t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	s := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/admin/generate-keys"},
		{http.MethodGet, "/api/admin/keys"},
		{http.MethodPost, "/api/admin/candidates"},
		{http.MethodPost, "/api/admin/voting-session"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/admin/reset"},
	}
	for _, r := range routes {
		status, body := s.do(r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, r.path)
		assert.Equal(t, false, body["success"], r.path)

		status, _ = s.do(r.method, r.path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, status, r.path)
	}
}

func TestAdminLoginRoutes(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(http.MethodPost, "/api/admin/login", "", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(http.MethodPost, "/api/auth/admin/login", "", map[string]string{"password": adminPassword})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, _ = s.do(http.MethodPost, "/api/admin/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestVoterTokenIsNotAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	_, body := s.do(http.MethodPost, "/api/admin/generate-keys", admin, nil)
	key := body["keys"].([]any)[0].(string)

	_, body = s.do(http.MethodPost, "/api/auth/validate-key", "", map[string]string{"key": key})
	voter := body["token"].(string)

	status, _ := s.do(http.MethodGet, "/api/admin/stats", voter, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestVotingFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	status, body := s.do(http.MethodPost, "/api/admin/generate-keys", admin, nil)
	require.Equal(t, http.StatusOK, status)
	keys := body["keys"].([]any)
	require.Len(t, keys, 36)

	status, body = s.do(http.MethodPost, "/api/admin/candidates", admin, map[string]any{
		"candidates": []map[string]string{{"name": "Alice"}, {"name": "Bob"}},
	})
	require.Equal(t, http.StatusOK, status)
	candidates := body["candidates"].([]any)
	aliceID := candidates[0].(map[string]any)["id"].(string)
	bobID := candidates[1].(map[string]any)["id"].(string)

	// Voting before the session opens.
	_, body = s.do(http.MethodPost, "/api/auth/validate-key", "", map[string]string{"key": keys[0].(string)})
	token0 := body["token"].(string)
	status, _ = s.do(http.MethodPost, "/api/votes/cast", token0, map[string]string{"candidateId": aliceID})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(http.MethodPost, "/api/admin/voting-session", admin, map[string]string{"action": "start"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["session"].(map[string]any)["isActive"])

	status, body = s.do(http.MethodGet, "/api/session-status", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isActive"])

	status, body = s.do(http.MethodPost, "/api/votes/cast", token0, map[string]string{"candidateId": aliceID})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = s.do(http.MethodPost, "/api/votes/cast", token0, map[string]string{"candidateId": bobID})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/api/auth/validate-key", "", map[string]string{"votingKey": keys[0].(string)})
	assert.Equal(t, http.StatusConflict, status)

	_, body = s.do(http.MethodPost, "/api/auth/validate-key", "", map[string]string{"votingKey": keys[1].(string)})
	token1 := body["token"].(string)
	status, _ = s.do(http.MethodPost, "/api/votes/cast", token1, map[string]string{"candidateId": bobID})
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/api/admin/voting-session", admin, map[string]string{"action": "stop"})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(http.MethodGet, "/api/votes/results", "", nil)
	require.Equal(t, http.StatusOK, status)
	session := body["session"].(map[string]any)
	assert.Equal(t, float64(2), session["totalVotes"])
	assert.Equal(t, false, session["isActive"])
	for _, c := range body["candidates"].([]any) {
		assert.Equal(t, float64(1), c.(map[string]any)["votes"])
	}

	status, body = s.do(http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["usedKeys"])
	assert.Equal(t, float64(34), stats["remainingKeys"])

	status, body = s.do(http.MethodGet, "/api/candidates/"+bobID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bob", body["candidate"].(map[string]any)["name"])
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	status, body := s.do(http.MethodPost, "/api/auth/validate-key", "", map[string]string{"key": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	status, _ = s.do(http.MethodPost, "/api/auth/validate-key", "", map[string]string{"key": "0123456789abcdef0123456789abcdef"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodPost, "/api/admin/candidates", admin, map[string]any{
		"candidates": []map[string]string{{"name": "A"}, {"name": "B"}, {"name": "C"}, {"name": "D"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/admin/voting-session", admin, map[string]string{"action": "pause"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(http.MethodPost, "/api/admin/voting-session", admin, map[string]string{"action": "stop"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No active voting session found", body["message"])

	status, _ = s.do(http.MethodGet, "/api/candidates/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodPost, "/api/votes/cast", "", map[string]string{"candidateId": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBearerTokenAccepted(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	req, err := http.NewRequest(http.MethodGet, s.URL+"/api/admin/keys", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReset(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()

	s.do(http.MethodPost, "/api/admin/generate-keys", admin, nil)
	status, _ := s.do(http.MethodPost, "/api/admin/reset", admin, nil)
	require.Equal(t, http.StatusOK, status)

	_, body := s.do(http.MethodGet, "/api/admin/keys", admin, nil)
	assert.Empty(t, body["keys"])
}
