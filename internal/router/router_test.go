package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hotel-pms/internal/config"
	"hotel-pms/internal/handler"
	"hotel-pms/internal/middleware"
	"hotel-pms/internal/model"
)

type staticValidator map[string]*model.AuthClaims

func (v staticValidator) ValidateToken(token string, _ string) (*model.AuthClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newTestRouter(metricsEnabled bool) http.Handler {
	cfg := &config.Config{
		RequestTimeout:   time.Second,
		AuthRateLimitRPM: 1000,
		MetricsEnabled:   metricsEnabled,
	}
	auth := middleware.NewAuthMiddleware(staticValidator{
		"staff-token": {UserID: "u-1", Username: "ravi.patel", Role: model.RoleStaff},
	})

	// Only the auth and role checks run; no module handler is reached.
	return New(cfg, auth, Handlers{
		Health: handler.NewHealthHandler(nil, config.BackendMemory),
	})
}

func serve(h http.Handler, method string, path string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMetricsRouteFollowsConfig(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newTestRouter(true), http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(newTestRouter(false), http.MethodGet, "/metrics", "").Code)
}

func TestHealthIsPublic(t *testing.T) {
	rec := serve(newTestRouter(false), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMutationsNeedManagerRole(t *testing.T) {
	r := newTestRouter(false)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/recycle-bin/records/rb-001/restore"},
		{http.MethodPost, "/api/v1/recycle-bin/bulk/archive"},
		{http.MethodDelete, "/api/v1/recycle-bin/records/rb-001"},
		{http.MethodPut, "/api/v1/recycle-bin/policy"},
		{http.MethodGet, "/api/v1/users"},
		{http.MethodPost, "/api/v1/transactions/"},
		{http.MethodDelete, "/api/v1/guest-services/gs-1"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, serve(r, tc.method, tc.path, "").Code)
			assert.Equal(t, http.StatusForbidden, serve(r, tc.method, tc.path, "staff-token").Code)
		})
	}
}

func TestWebsocketRouteAbsentWithoutHandler(t *testing.T) {
	rec := serve(newTestRouter(false), http.MethodGet, "/api/v1/ws?token=staff-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
