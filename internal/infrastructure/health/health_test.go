package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestProbeFlipsStatus(t *testing.T) {
	pinger := &fakePinger{}
	srv := newServer(pinger, zap.NewNop())
	ctx := context.Background()

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := srv.status.Check(ctx, &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		return resp.GetStatus()
	}

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())

	require.NoError(t, srv.Probe(ctx))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check())

	pinger.err = errors.New("connection refused")
	assert.Error(t, srv.Probe(ctx))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check())
}
