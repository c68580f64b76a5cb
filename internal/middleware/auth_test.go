package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/model"
)

type stubValidator struct {
	tokens map[string]*model.AuthClaims
}

func (s stubValidator) ValidateToken(token string, expectedType string) (*model.AuthClaims, error) {
	claims, ok := s.tokens[token]
	if !ok || claims.Type != expectedType {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func newStubAuth() *AuthMiddleware {
	return NewAuthMiddleware(stubValidator{tokens: map[string]*model.AuthClaims{
		"manager-token": {UserID: "u-1", Username: "maria.lopez", Role: model.RoleManager, Type: "access"},
		"staff-token":   {UserID: "u-2", Username: "ravi.patel", Role: model.RoleStaff, Type: "access"},
		"refresh-token": {UserID: "u-1", Username: "maria.lopez", Role: model.RoleManager, Type: "refresh"},
	}})
}

func TestRequireAuth(t *testing.T) {
	auth := newStubAuth()

	var actor model.Actor
	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromRequest(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := map[string]int{
		"":                     http.StatusUnauthorized,
		"Basic abc":            http.StatusUnauthorized,
		"Bearer nope":          http.StatusUnauthorized,
		"Bearer refresh-token": http.StatusUnauthorized,
		"bearer manager-token": http.StatusNoContent,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, header)
	}

	assert.Equal(t, "maria.lopez", actor.Username)
	assert.Equal(t, "u-1", actor.UserID)
}

func TestRequireRoles(t *testing.T) {
	auth := newStubAuth()
	handler := auth.RequireAuth(auth.RequireRoles(model.RoleAdmin, model.RoleManager)(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recycle-bin/records/rb-001/restore", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")

	req.Header.Set("Authorization", "Bearer manager-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireQueryToken(t *testing.T) {
	auth := newStubAuth()
	handler := auth.RequireQueryToken(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=staff-token", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActorWithoutSessionIsSystem(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	actor := ActorFromRequest(req)
	assert.Equal(t, "system", actor.Name())
	assert.NotEmpty(t, actor.IP)
}

func TestLoggingSetsRequestID(t *testing.T) {
	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Unexpected server error"}}`, rec.Body.String())
}
