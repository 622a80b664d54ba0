package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 60 * time.Second}
	c := &Client{}
	WithHTTPClient(custom)(c)
	assert.Same(t, custom, c.httpClient)

	WithHTTPClient(nil)(c)
	assert.Same(t, custom, c.httpClient)
}

func TestWithTimeout(t *testing.T) {
	c := &Client{httpClient: &http.Client{Timeout: time.Second}}
	WithTimeout(5 * time.Second)(c)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)

	WithTimeout(0)(c)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestWithActorAndAPIKey(t *testing.T) {
	c := &Client{}
	WithActor("records-desk")(c)
	WithAPIKey("k")(c)
	assert.Equal(t, "records-desk", c.actor)
	assert.Equal(t, "k", c.apiKey)
}

func TestWithLogger(t *testing.T) {
	logger := &testLogger{}
	c := &Client{}
	WithLogger(logger)(c)
	assert.Equal(t, logger, c.logger)
}

func TestWithRetryMax(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive value", 5, 5},
		{"zero value", 0, 0},
		{"negative value ignored", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryMax: 3}
			WithRetryMax(tt.input)(c)
			assert.Equal(t, tt.expected, c.retryMax)
		})
	}
}

func TestWithRetryWait(t *testing.T) {
	c := &Client{retryWaitMin: time.Second, retryWaitMax: 2 * time.Second}
	WithRetryWait(10*time.Millisecond, 50*time.Millisecond)(c)
	assert.Equal(t, 10*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 50*time.Millisecond, c.retryWaitMax)

	// max below min keeps the previous max
	WithRetryWait(100*time.Millisecond, 20*time.Millisecond)(c)
	assert.Equal(t, 100*time.Millisecond, c.retryWaitMin)
	assert.Equal(t, 50*time.Millisecond, c.retryWaitMax)

	WithRetryWait(0, time.Second)(c)
	assert.Equal(t, 100*time.Millisecond, c.retryWaitMin)
}

func TestWithUserAgent(t *testing.T) {
	c := &Client{userAgent: "default"}
	WithUserAgent("")(c)
	assert.Equal(t, "default", c.userAgent)
	WithUserAgent("custom/1.0")(c)
	assert.Equal(t, "custom/1.0", c.userAgent)
}

//Personal.AI order the ending
