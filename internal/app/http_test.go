package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/config"
	"hotel-pms/internal/demo"
	"hotel-pms/internal/event"
	"hotel-pms/internal/model"
	"hotel-pms/internal/persist"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := testConfig(true)
	cfg.PersistenceBackend = config.BackendMemory
	cfg.RequestTimeout = 5 * time.Second
	cfg.AuthRateLimitRPM = 1000
	cfg.MetricsEnabled = true

	services := NewServices(cfg, persist.NewMemory(), event.NewBus())
	require.NoError(t, services.Load(context.Background(), cfg, demo.NewEmbedded()))

	server := httptest.NewServer(services.Router(cfg, nil, nil))
	t.Cleanup(server.Close)
	return server
}

func call(t *testing.T, server *httptest.Server, method string, path string, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func login(t *testing.T, server *httptest.Server, username string, password string) string {
	t.Helper()

	status, env := call(t, server, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, status)

	var tokens model.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func TestHealthCarriesSecurityHeaders(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAPIRequiresSession(t *testing.T) {
	server := newTestServer(t)

	status, env := call(t, server, http.MethodGet, "/api/v1/leads", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = call(t, server, http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRecycleBinRoleBoundaries(t *testing.T) {
	server := newTestServer(t)
	staff := login(t, server, "ravi.patel", "maintenance123")
	manager := login(t, server, "maria.lopez", "frontdesk123")
	admin := login(t, server, "admin", "admin123")

	status, env := call(t, server, http.MethodGet, "/api/v1/recycle-bin/records", staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.Positive(t, env.Meta.Total)

	status, _ = call(t, server, http.MethodPost, "/api/v1/recycle-bin/records/rb-001/restore", staff, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, server, http.MethodPost, "/api/v1/recycle-bin/records/rb-001/restore", manager, map[string]string{"note": "guest called back"})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, _ = call(t, server, http.MethodDelete, "/api/v1/recycle-bin/records/rb-004", manager, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, server, http.MethodDelete, "/api/v1/recycle-bin/records/rb-004", admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = call(t, server, http.MethodGet, "/api/v1/recycle-bin/audit?action=restore", admin, nil)
	require.Equal(t, http.StatusOK, status)

	var audit model.ListData[model.AuditLogEntry]
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	require.Len(t, audit.Items, 1)
	assert.Equal(t, model.AuditRestore, audit.Items[0].Action)
	assert.Equal(t, "maria.lopez", audit.Items[0].UserName)
	assert.Equal(t, "rb-001", audit.Items[0].RecordID)
}

func TestProtectedRecordDeleteIsConflict(t *testing.T) {
	server := newTestServer(t)
	admin := login(t, server, "admin", "admin123")

	status, env := call(t, server, http.MethodDelete, "/api/v1/recycle-bin/records/rb-002", admin, nil)
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "PROTECTED_RECORD", env.Error.Code)

	status, env = call(t, server, http.MethodGet, "/api/v1/recycle-bin/records/does-not-exist", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestTransactionsExportStreamsCSV(t *testing.T) {
	server := newTestServer(t)
	admin := login(t, server, "admin", "admin123")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/transactions/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "transactions-")

	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	assert.True(t, strings.HasPrefix(scanner.Text(), "id,type,status"))
	assert.True(t, scanner.Scan(), "expected at least one data row")
}

func TestUserAdministrationIsAdminOnly(t *testing.T) {
	server := newTestServer(t)
	manager := login(t, server, "maria.lopez", "frontdesk123")
	admin := login(t, server, "admin", "admin123")

	status, _ := call(t, server, http.MethodGet, "/api/v1/users", manager, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := call(t, server, http.MethodPost, "/api/v1/users", admin, model.CreateUserRequest{
		Username: "night.audit",
		Password: "nightshift1",
		Role:     model.RoleStaff,
	})
	require.Equal(t, http.StatusCreated, status)

	var created model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "night.audit", created.Username)

	status, env = call(t, server, http.MethodGet, "/api/v1/auth/me", login(t, server, "night.audit", "nightshift1"), nil)
	require.Equal(t, http.StatusOK, status)
	var me model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, model.RoleStaff, me.Role)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
