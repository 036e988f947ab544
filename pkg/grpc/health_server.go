package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/example/restaurant/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const probeInterval = 10 * time.Second

// HealthServer exposes grpc.health.v1 for the restaurant service. Its status
// follows the supplied check, typically a database ping.
type HealthServer struct {
	config  *config.GRPCConfig
	name    string
	check   func(ctx context.Context) error
	logger  *zap.Logger
	server  *grpc.Server
	health  *health.Server
	serving bool
}

func NewHealthServer(cfg *config.GRPCConfig, name string, check func(ctx context.Context) error, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &HealthServer{
		config: cfg,
		name:   name,
		check:  check,
		logger: logger,
		server: srv,
		health: hs,
	}
	s.SetServing(true)
	return s
}

func (s *HealthServer) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.name, status)
	if ok != s.serving {
		s.logger.Info("Serving status changed", zap.String("status", status.String()))
	}
	s.serving = ok
}

// Start listens on the configured address and blocks until Stop.
func (s *HealthServer) Start() error {
	lis, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("Health service started", zap.String("address", s.config.Addr()))
	return s.Serve(lis)
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Watch re-runs the check until ctx is done. It must not run concurrently
// with another Watch or probe.
func (s *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *HealthServer) probe(ctx context.Context) {
	if s.check == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := s.check(ctx)
	if err != nil {
		s.logger.Warn("Health probe failed", zap.Error(err))
	}
	s.SetServing(err == nil)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
