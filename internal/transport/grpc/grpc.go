// Package grpc implements the gRPC transport for lircbridge.
//
// It serves the standard grpc.health.v1 service so orchestrators and
// gRPC-native peers can probe the bridge. The "lircbridge" service name is
// SERVING while the driver reports at least one remote.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nadzzz/lircbridge/internal/transport"
)

// ServiceName is the health-check service tracking driver availability.
const ServiceName = "lircbridge"

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port     int
	interval time.Duration

	mu     sync.Mutex
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port, interval: 30 * time.Second}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server. It blocks until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, svc)
}

// Serve runs the gRPC server on lis.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, svc transport.Service) error {
	hs := health.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	t.mu.Lock()
	t.server, t.health = server, hs
	t.mu.Unlock()

	t.updateStatus(svc)
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("grpc transport shutting down")
				_ = t.Close()
				return
			case <-ticker.C:
				t.updateStatus(svc)
			}
		}
	}()

	if err := server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func (t *Transport) updateStatus(svc transport.Service) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if len(svc.Remotes()) > 0 {
		status = healthpb.HealthCheckResponse_SERVING
	}
	t.mu.Lock()
	hs := t.health
	t.mu.Unlock()
	if hs == nil {
		return
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, status)
}

// Close marks every service NOT_SERVING and stops the server gracefully.
func (t *Transport) Close() error {
	t.mu.Lock()
	server, hs := t.server, t.health
	t.server, t.health = nil, nil
	t.mu.Unlock()

	if hs != nil {
		hs.Shutdown()
	}
	if server != nil {
		server.GracefulStop()
	}
	return nil
}
