package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/metrics"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(common.RequestIDHeaderName))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(common.RequestIDHeaderName, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(common.RequestIDHeaderName))
}

func TestRecoverMiddleware(t *testing.T) {
	env := newEnv(t)
	h := env.handler.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestAccessLog_ObservesStatus(t *testing.T) {
	env := newEnv(t)

	env.get("/healthz")
	env.get("/api/session")

	env.observer.mu.Lock()
	defer env.observer.mu.Unlock()
	assert.Equal(t, []int{http.StatusOK, http.StatusUnauthorized}, env.observer.statuses)
}

func TestOpsEndpoints(t *testing.T) {
	collectors := metrics.New()
	env := newEnv(t, withDeps(func(d *Deps) {
		d.Ready = fakePinger{}
		d.Observer = collectors
		d.Metrics = collectors.Handler()
	}))

	rec := env.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.get("/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inventory_http_requests_total")
}

func TestReadyz_Unavailable(t *testing.T) {
	env := newEnv(t, withDeps(func(d *Deps) { d.Ready = fakePinger{err: errBoom} }))

	rec := env.get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOT_READY", decodeEnvelope(t, rec.Body.Bytes())["code"])
}

func TestMetricsRouteAbsentWithoutHandler(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, http.StatusNotFound, env.get("/metrics").Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: []services.FieldError{{Field: "f", Message: "m"}}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bare validation", fmt.Errorf("%w: bad", common.ErrorValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid username", &auth.Failure{Reason: auth.ReasonInvalidUsername}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"invalid password", &auth.Failure{Reason: auth.ReasonInvalidPassword}, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"auth internal", &auth.Failure{Reason: auth.ReasonInternalError, Err: errBoom}, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"session invalid", common.ErrSessionInvalid, http.StatusUnauthorized, "SESSION_INVALID"},
		{"unauthenticated", common.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", common.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", fmt.Errorf("error loading user: %w", common.ErrorNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", common.ErrorAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"internal wraps not found", errors.Join(common.ErrorInternal, common.ErrorNotFound), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown", errBoom, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotContains(t, msg, "boom")
		})
	}
}

func TestRenderer_AllPagesParse(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	for _, name := range pageNames {
		assert.Contains(t, r.pages, name)
	}

	assert.Error(t, r.Render(httptest.NewRecorder(), "nope", PageData{}))
}
