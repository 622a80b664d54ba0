package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/testutil"
)

func TestServer_ServeAndStop(t *testing.T) {
	logger := testutil.NewMockLogger()
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("pong")) })

	srv := NewServer(config.HTTPConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, mux, logger)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, srv.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
	assert.True(t, logger.HasMessage("info", "HTTP server stopped"))
}

func TestNewServer_DefaultShutdownTimeout(t *testing.T) {
	srv := NewServer(config.HTTPConfig{Host: "0.0.0.0", Port: 8080}, http.NewServeMux(), testutil.NewMockLogger())
	assert.Equal(t, "0.0.0.0:8080", srv.srv.Addr)
	assert.Equal(t, defaultShutdownTimeout, srv.shutdownTimeout)
}

//Personal.AI order the ending
