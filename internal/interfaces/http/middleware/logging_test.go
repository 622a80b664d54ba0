package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/testutil"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		level string
	}{
		{"success", http.StatusOK, "info"},
		{"client error", http.StatusNotFound, "warn"},
		{"server error", http.StatusInternalServerError, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := testutil.NewMockLogger()
			h := RequestLogging(log, DefaultLoggingConfig())(statusHandler(tt.code))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))

			msgs := log.GetMessages()
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.level, msgs[0].Level)
			status, ok := msgs[0].Field("status")
			require.True(t, ok)
			assert.EqualValues(t, tt.code, status)
		})
	}
}

func TestRequestLogging_SkipPaths(t *testing.T) {
	log := testutil.NewMockLogger()
	h := RequestLogging(log, DefaultLoggingConfig())(statusHandler(http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, log.GetMessages())
}

func TestRequestLogging_Slow(t *testing.T) {
	log := testutil.NewMockLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	h := RequestLogging(log, LoggingConfig{SlowThreshold: time.Millisecond})(slow)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, log.HasMessage("warn", "slow"))
}

func TestRequestLogging_RecordsActor(t *testing.T) {
	log := testutil.NewMockLogger()
	h := Actor(RequestLogging(log, DefaultLoggingConfig())(statusHandler(http.StatusCreated)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", nil)
	req.Header.Set(ActorHeader, "clerk-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	msgs := log.GetMessages()
	require.Len(t, msgs, 1)
	actor, ok := msgs[0].Field("actor")
	require.True(t, ok)
	assert.Equal(t, "clerk-7", actor)
}

//Personal.AI order the ending
