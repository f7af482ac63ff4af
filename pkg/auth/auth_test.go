package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"milovat/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestService_IssueAndAuthenticate(t *testing.T) {
	svc := NewService(testSecret, time.Hour)

	token, expires, err := svc.Issue("65f000000000000000000001", model.RoleResident)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	id, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "65f000000000000000000001", Role: model.RoleResident}, id)
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	good, _, err := svc.Issue("u1", model.RoleAdmin)
	require.NoError(t, err)

	other := NewService("another-secret-0123456789", time.Hour)
	forged, _, err := other.Issue("u1", model.RoleAdmin)
	require.NoError(t, err)

	expired := NewService(testSecret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Issue("u1", model.RoleAdmin)
	require.NoError(t, err)

	badRole, _, err := svc.Issue("u1", model.Role("janitor"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
		"expired":      stale,
		"unknown role": badRole,
		"truncated":    good[:len(good)-4],
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword("correct horse", hash))
	assert.ErrorIs(t, CheckPassword("wrong", hash), ErrPasswordMismatch)
	assert.ErrorIs(t, CheckPassword("x", "not-a-hash"), ErrPasswordMismatch)
}

func TestRequireAuth(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	token, _, err := svc.Issue("u1", model.RoleGuard)
	require.NoError(t, err)

	router := httprouter.New()
	router.GET("/me", RequireAuth(svc, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(string(id.Role)))
	}))
	router.DELETE("/admin", RequireAuth(svc, RequireRole(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusNoContent)
	}, model.RoleAdmin)))

	tests := []struct {
		name   string
		method string
		path   string
		header string
		status int
		body   string
	}{
		{"valid token", http.MethodGet, "/me", "Bearer " + token, http.StatusOK, "guard"},
		{"scheme is case insensitive", http.MethodGet, "/me", "bearer " + token, http.StatusOK, "guard"},
		{"missing header", http.MethodGet, "/me", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", http.MethodGet, "/me", "Basic " + token, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"invalid token", http.MethodGet, "/me", "Bearer nope", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"role not allowed", http.MethodDelete, "/admin", "Bearer " + token, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
