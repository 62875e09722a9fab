package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.NewAccessToken("emp-1", "frontdesk", role, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	if EmployeeID(r) != "" && r.Context().Value(logger.EmployeeIDKey) == EmployeeID(r) {
		w.Header().Set("X-Employee", EmployeeID(r))
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestRequireJWT(t *testing.T) {
	h := RequireJWT(secret)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer "+token(t, domain.RoleStaff))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "emp-1", rec.Header().Get("X-Employee"))
}

func TestRequireRole(t *testing.T) {
	h := RequireJWT(secret)(RequireRole(domain.RoleManager, domain.RoleAdmin)(http.HandlerFunc(okHandler)))

	for role, want := range map[string]int{
		domain.RoleStaff:   http.StatusForbidden,
		domain.RoleManager: http.StatusNoContent,
		domain.RoleAdmin:   http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	c := cache.NewMemory(func() time.Time { return now })
	rl := NewRateLimiter(c, RateLimitConfig{Name: "login", Requests: 2, Window: time.Minute})
	h := rl.Middleware()(http.HandlerFunc(okHandler))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("203.0.113.5"))
	assert.Equal(t, http.StatusNoContent, call("203.0.113.5"))
	assert.Equal(t, http.StatusTooManyRequests, call("203.0.113.5"))
	assert.Equal(t, http.StatusNoContent, call("198.51.100.7"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusNoContent, call("203.0.113.5"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.9")
	assert.Equal(t, "192.0.2.9", getClientIP(req))
}
