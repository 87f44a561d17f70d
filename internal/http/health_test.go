package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping() error { return p.err }

func getHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is reachable", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(stubPinger{}, "1.0.0", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports not configured when database is nil", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(nil, "1.0.0", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when ping fails", func(t *testing.T) {
		w, response := getHealth(t, NewHealthController(stubPinger{err: errors.New("sql: database is closed")}, "1.0.0", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("includes scheduler state", func(t *testing.T) {
		_, response := getHealth(t, NewHealthController(stubPinger{}, "", &stubScheduler{running: true}))

		assert.Equal(t, "running", response.Checks["scheduler"])
	})
}

func TestHealthResponse_OmitsEmptyVersion(t *testing.T) {
	jsonBytes, err := json.Marshal(HealthResponse{Status: "healthy", Checks: map[string]string{}})
	require.NoError(t, err)

	assert.NotContains(t, string(jsonBytes), "version")
}
