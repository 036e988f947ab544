package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/example/restaurant/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealth(t *testing.T, check func(context.Context) error) (*HealthServer, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := NewHealthServer(&config.GRPCConfig{}, "restaurant", check, zap.NewNop())
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return s, healthpb.NewHealthClient(conn)
}

func status(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestHealthServing(t *testing.T) {
	_, c := startHealth(t, nil)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, "restaurant"))
}

func TestHealthFollowsProbe(t *testing.T) {
	var failing bool
	s, c := startHealth(t, func(context.Context) error {
		if failing {
			return errors.New("database unreachable")
		}
		return nil
	})

	failing = true
	s.probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, c, "restaurant"))

	failing = false
	s.probe(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, c, ""))
}

func TestHealthUnknownService(t *testing.T) {
	_, c := startHealth(t, nil)

	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "billing"})
	assert.Error(t, err)
}
