package security

import (
	"academic_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/ping", func(c *gin.Context) { util.Success(c, "pong") })
	return r
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLimiterRejectsWithEnvelope(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	t.Cleanup(l.Close)
	r := limitedRouter(l)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)

	w := hit(r, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	var body util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "RATE_LIMITED", body.Reason)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2").Code)
}

func TestLimiterSetLimitAppliesToTrackedClients(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	t.Cleanup(l.Close)
	r := limitedRouter(l)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1").Code)

	l.SetLimit(5, time.Minute)
	l.mu.Lock()
	tracked := l.visitors["10.0.0.1"].limiter
	l.mu.Unlock()
	assert.Equal(t, 5, tracked.Burst())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.9").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.9").Code)

	l.SetLimit(0, time.Minute)
	l.mu.Lock()
	assert.Equal(t, 5, l.burst)
	l.mu.Unlock()
}

func TestLimiterCloseIsIdempotent(t *testing.T) {
	l := NewLimiter(1, time.Second)
	l.Close()
	l.Close()
}
