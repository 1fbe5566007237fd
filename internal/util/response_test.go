package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrExamNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrSessionNotSubmitted, http.StatusForbidden},
		{&PendingError{}, http.StatusTooEarly},
		{ErrExamEnded, http.StatusGone},
		{ErrSessionClosed, http.StatusGone},
		{ErrDuplicateContact, http.StatusConflict},
		{ErrInvalidOption, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", ErrRateLimited), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(KindOf(tt.err)), tt.err.Error())
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, RetryAfterSeconds(now, now))
	assert.Equal(t, 1, RetryAfterSeconds(now.Add(-time.Minute), now))
	assert.Equal(t, 2, RetryAfterSeconds(now.Add(1500*time.Millisecond), now))
	assert.Equal(t, 600, RetryAfterSeconds(now.Add(10*time.Minute), now))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
		wantRetry  bool
	}{
		{"pending", &PendingError{StartsAt: time.Now().Add(time.Hour)}, http.StatusTooEarly, "EXAM_NOT_YET_AVAILABLE", true},
		{"ended", ErrExamEnded, http.StatusGone, "EXAM_ENDED", false},
		{"custom invalid input", InvalidInput("bad score"), http.StatusBadRequest, "INVALID_INPUT", false},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			RespondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Equal(t, tt.wantRetry, w.Header().Get("Retry-After") != "")
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "db down")
			}
		})
	}
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, "SESSION_CLOSED", ReasonOf(fmt.Errorf("upsert: %w", ErrSessionClosed)))
	assert.Equal(t, "EXAM_NOT_YET_AVAILABLE", ReasonOf(&PendingError{}))
	assert.Equal(t, "INTERNAL", ReasonOf(errors.New("x")))
	assert.True(t, errors.Is(&PendingError{}, ErrExamNotYetAvailable))
}
