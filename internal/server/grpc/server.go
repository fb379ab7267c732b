// Package grpc serves the standard gRPC health service for the inventory
// server. The status follows database reachability and drops to
// NOT_SERVING when the server shuts down.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health entry registered next to the overall "" entry.
const ServiceName = "partsinventory.Inventory"

const defaultCheckInterval = 10 * time.Second

// Pinger reports backend readiness. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	ready    Pinger
	health   *health.Server
	interval time.Duration
}

// NewGRPCServer builds the health server. ready may be nil, in which case
// the server reports SERVING as soon as it starts.
func NewGRPCServer(a string, l logging.Logger, ready Pinger) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		ready:    ready,
		health:   health.NewServer(),
		interval: defaultCheckInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gPRC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.ready != nil {
		pingCtx, cancel := context.WithTimeout(ctx, s.interval/2)
		err := s.ready.PingContext(pingCtx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "readiness check failed", "error", err.Error())
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
