package grpc

import (
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes ask the health service about.
const ServiceName = "storefront.notifier"

type Server struct {
	log    *slog.Logger
	gs     *grpc.Server
	health *health.Server
}

func NewServer(log *slog.Logger) *Server {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{log: log, gs: gs, health: hs}
}

// SetServing flips the status reported for ServiceName.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Serve(lis net.Listener) {
	go func() {
		if err := s.gs.Serve(lis); err != nil {
			s.log.Error("grpc serve stopped", "err", err)
		}
	}()
}

func Run(log *slog.Logger, addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := NewServer(log)
	s.Serve(lis)
	log.Info("grpc health listening", "addr", addr)
	return s, nil
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.gs.GracefulStop()
}
