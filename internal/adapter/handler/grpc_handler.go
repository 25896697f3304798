package handler

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/material-scanner/internal/core/domain"
)

const DecoderService = "scanner.Decoder"

// GRPCHealthHandler publishes the decoder status through the standard
// gRPC health service. It doubles as the controller's state listener.
type GRPCHealthHandler struct {
	server *health.Server
}

func NewGRPCHealthHandler() *GRPCHealthHandler {
	s := health.NewServer()
	s.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.SetServingStatus(DecoderService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &GRPCHealthHandler{server: s}
}

func (h *GRPCHealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

func (h *GRPCHealthHandler) StateChanged(mode domain.Mode, decoderErr error) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if mode == domain.ModeScanning && decoderErr == nil {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus(DecoderService, status)
}

func (h *GRPCHealthHandler) Shutdown() {
	h.server.Shutdown()
}

// Server exposes the underlying health server, mostly for direct checks in tests.
func (h *GRPCHealthHandler) Server() healthpb.HealthServer {
	return h.server
}
