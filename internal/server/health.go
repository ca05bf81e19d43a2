package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/property-annotator/internal/llm"
)

// HealthServer is the gRPC health service; it reports NOT_SERVING once the
// oracle credentials are exhausted.
type HealthServer struct {
	*health.Server
	creds    CredentialStatus
	interval time.Duration
	logger   *slog.Logger
}

func NewHealthServer(creds CredentialStatus, interval time.Duration, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	hs := &HealthServer{Server: health.NewServer(), creds: creds, interval: interval, logger: logger}
	hs.Refresh()
	return hs
}

// Refresh sets the overall serving status from the credential state.
func (h *HealthServer) Refresh() healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.creds != nil && h.creds.State() == llm.CredentialsExhausted {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(modelClass, status)
	return status
}

// Monitor refreshes the status until ctx is done.
func (h *HealthServer) Monitor(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	last := h.Refresh()
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-t.C:
			if s := h.Refresh(); s != last {
				h.logger.Warn("health.status_changed", "from", last.String(), "to", s.String())
				last = s
			}
		}
	}
}
