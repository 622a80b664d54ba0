package grpc

import (
	"context"
	stderrors "errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/testutil"
)

func startTestServer(t *testing.T, opts ...Option) (*Server, healthpb.HealthClient) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv, err := NewServer(config.GRPCConfig{Enabled: true}, append(opts, WithListener(lis))...)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	conn, err := grpc.Dial(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("grpc server did not exit")
		}
	})
	return srv, healthpb.NewHealthClient(conn)
}

func healthStatus(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestNewServer_BindsConfiguredAddress(t *testing.T) {
	srv, err := NewServer(config.GRPCConfig{Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	assert.Contains(t, srv.Addr(), "127.0.0.1:")
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestNewServer_InvalidAddress(t *testing.T) {
	_, err := NewServer(config.GRPCConfig{Host: "127.0.0.1", Port: -1})
	require.Error(t, err)
}

func TestServer_HealthServing(t *testing.T) {
	_, client := startTestServer(t)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, healthStatus(t, client))
}

func TestServer_SetServing(t *testing.T) {
	srv, client := startTestServer(t)

	srv.SetServing("", false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, healthStatus(t, client))

	srv.SetServing("", true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, healthStatus(t, client))
}

func TestServer_WatchReadinessMirrorsCheck(t *testing.T) {
	logger := testutil.NewMockLogger()
	srv, client := startTestServer(t, WithLogger(logger))

	var failing atomic.Bool
	failing.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.WatchReadiness(ctx, 10*time.Millisecond, func(context.Context) error {
		if failing.Load() {
			return stderrors.New("postgres: connection refused")
		}
		return nil
	})

	assert.Eventually(t, func() bool {
		return healthStatus(t, client) == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	failing.Store(false)
	assert.Eventually(t, func() bool {
		return healthStatus(t, client) == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, logger.Count("warn", "grpc health degraded"))
	assert.Equal(t, 1, logger.Count("info", "grpc health restored"))
}

func TestServer_DoubleStart(t *testing.T) {
	srv, client := startTestServer(t)
	// Wait until the first Start is serving.
	healthStatus(t, client)

	err := srv.Start()
	require.Error(t, err)
}

func TestServer_StopBeforeStart(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv, err := NewServer(config.GRPCConfig{}, WithListener(lis))
	require.NoError(t, err)
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	logger := testutil.NewMockLogger()
	interceptor := recoveryUnaryInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/foia.Tracker/Scan"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.True(t, logger.HasMessage("error", "grpc panic recovered"))

	resp, err := interceptor(context.Background(), "req", info, func(_ context.Context, req interface{}) (interface{}, error) {
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
}

func TestLoggingUnaryInterceptor(t *testing.T) {
	logger := testutil.NewMockLogger()
	interceptor := loggingUnaryInterceptor(logger)
	ok := func(context.Context, interface{}) (interface{}, error) { return nil, nil }

	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)
	assert.Empty(t, logger.GetMessages())

	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/foia.Tracker/Scan"},
		func(context.Context, interface{}) (interface{}, error) {
			return nil, status.Error(codes.NotFound, "missing")
		})
	msgs := logger.GetMessages()
	require.Len(t, msgs, 1)
	svc, _ := msgs[0].Field("service")
	code, _ := msgs[0].Field("code")
	assert.Equal(t, "foia.Tracker", svc)
	assert.Equal(t, "NotFound", code)
}

func TestSplitMethodName(t *testing.T) {
	cases := []struct {
		in, service, method string
	}{
		{"/grpc.health.v1.Health/Check", "grpc.health.v1.Health", "Check"},
		{"/foia.Tracker/Scan", "foia.Tracker", "Scan"},
		{"Bare", "unknown", "Bare"},
	}
	for _, tc := range cases {
		s, m := splitMethodName(tc.in)
		assert.Equal(t, tc.service, s, tc.in)
		assert.Equal(t, tc.method, m, tc.in)
	}
}

//Personal.AI order the ending
