package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health service. Its status follows the
// database probe.
type Server struct {
	grpc     *grpc.Server
	status   *health.Server
	listener net.Listener
	pinger   Pinger
	log      *zap.Logger
}

func NewServer(port int, pinger Pinger, log *zap.Logger) (*Server, error) {
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if pinger == nil {
		return nil, errors.New("pinger is nil")
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen grpc health: %w", err)
	}

	srv := newServer(pinger, log)
	srv.listener = listener
	return srv, nil
}

func newServer(pinger Pinger, log *zap.Logger) *Server {
	status := health.NewServer()
	status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, status)
	reflection.Register(grpcServer)

	return &Server{
		grpc:   grpcServer,
		status: status,
		pinger: pinger,
		log:    log,
	}
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) Serve() error {
	return s.grpc.Serve(s.listener)
}

// Probe pings the database and flips the serving status accordingly.
func (s *Server) Probe(ctx context.Context) error {
	if err := s.pinger.Ping(ctx); err != nil {
		s.status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		s.log.Warn("scheduler: database probe failed", zap.Error(err))
		return err
	}
	s.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return nil
}

func (s *Server) Stop() {
	s.status.Shutdown()
	s.grpc.GracefulStop()
}
