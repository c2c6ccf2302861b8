package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/solatis/ntfyrelay/internal/core/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes the standard gRPC health service for orchestrator
// probes. It serves nothing else.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	config *config.RelayConfig
}

// NewHealthServer creates a gRPC health server for cfg.Host:cfg.HealthPort.
func NewHealthServer(cfg *config.RelayConfig) (*HealthServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if cfg.HealthPort <= 0 {
		return nil, fmt.Errorf("health port not configured")
	}

	server := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &HealthServer{
		server: server,
		health: healthServer,
		config: cfg,
	}, nil
}

// Start binds the listener and serves until Shutdown is called.
func (s *HealthServer) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.HealthPort))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown is called.
func (s *HealthServer) Serve(listener net.Listener) error {
	return s.server.Serve(listener)
}

// Shutdown reports NOT_SERVING, then stops gracefully within 30 seconds.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
