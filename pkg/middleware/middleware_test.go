package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diagnosis/frontdesk/pkg/cache"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyReplaysSuccessfulPost(t *testing.T) {
	calls := 0
	h := IdempotencyMiddleware(cache.NewMemory(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/scans", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	}
	assert.Equal(t, 1, calls)

	req := httptest.NewRequest(http.MethodPost, "/scans", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 2, calls, "requests without a key always run")
}

func TestIdempotencySkipsFailures(t *testing.T) {
	calls := 0
	h := IdempotencyMiddleware(cache.NewMemory(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/scans", nil)
		req.Header.Set("Idempotency-Key", "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestTerminalID(t *testing.T) {
	var got string
	h := TerminalID("desk-1")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TerminalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "desk-1", got)

	req.Header.Set("X-Terminal-ID", "spa-desk")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "spa-desk", got)
}
