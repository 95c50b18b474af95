package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getHealth(t *testing.T, h http.Handler, path string) (int, HealthResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	code, resp := getHealth(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, resp.Status)
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		shutdown   bool
		checkErr   error
		wantCode   int
		wantChecks map[string]string
	}{
		{
			name:       "all ok",
			ready:      true,
			wantCode:   http.StatusOK,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "calendar": "ok"},
		},
		{
			name:       "not ready",
			ready:      false,
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "not ready", "shutdown": "ok", "calendar": "ok"},
		},
		{
			name:       "shutting down",
			ready:      true,
			shutdown:   true,
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "shutting down", "calendar": "ok"},
		},
		{
			name:       "dependency failing",
			ready:      true,
			checkErr:   errors.New("no credentials"),
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "calendar": "no credentials"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, false)
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}

			h := NewHealthChecker(sc)
			h.SetReady(tt.ready)
			h.AddCheck("calendar", func(context.Context) error { return tt.checkErr })

			code, resp := getHealth(t, h.ReadinessHandler(), "/readyz")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestHealthChecker_CheckHonoursTimeout(t *testing.T) {
	h := NewHealthChecker(nil)
	h.checkTimeout = 0
	h.AddCheck("lock", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, resp := getHealth(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["lock"])
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc := newTestServerContext(t, true)
	h := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	var resp DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.True(t, resp.ReadOnly)
	assert.NotEmpty(t, resp.Uptime)
}
