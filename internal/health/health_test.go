package health

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"campus-events/internal/connectivity"
)

func check(t *testing.T, r *Reporter) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := r.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: Service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestReporterFollowsConnectivity(t *testing.T) {
	m := connectivity.NewMonitor(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := Register(grpc.NewServer(), m)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, r))

	m.Set(true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, r))

	m.Set(false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, r))

	m.Set(true)
	r.Shutdown()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, r))

	m.Set(false)
	m.Set(true)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, r), "a shut down reporter stays down")
}
