package server

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus represents the overall health of the system
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the health of an individual component
type ComponentStatus string

const (
	ComponentStatusUp       ComponentStatus = "up"
	ComponentStatusDown     ComponentStatus = "down"
	ComponentStatusDegraded ComponentStatus = "degraded"
)

// Health is the readiness report.
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents the health of a single system component
type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms,omitempty"`
}

// slowStoreThreshold marks the log store degraded when a ping takes longer.
const slowStoreThreshold = time.Second

// HandleLive is the liveness probe: the process is up and serving.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady reports whether the log store is reachable. It answers 503
// when any component is down.
func (s *Server) HandleReady(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth(r.Context())

	status := http.StatusOK
	if health.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) checkHealth(ctx context.Context) Health {
	health := Health{
		Timestamp:  s.clock.Now().UTC(),
		Version:    s.cfg.App.Version,
		Components: map[string]ComponentHealth{"log_store": s.checkStoreHealth(ctx)},
	}
	health.Status = determineOverallHealth(health.Components)
	return health
}

func (s *Server) checkStoreHealth(ctx context.Context) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  ComponentStatusDown,
			Message: "log store unavailable: " + err.Error(),
		}
	}
	latency := time.Since(start)

	if latency > slowStoreThreshold {
		return ComponentHealth{
			Status:    ComponentStatusDegraded,
			Message:   "log store latency high",
			LatencyMs: float64(latency.Milliseconds()),
		}
	}
	return ComponentHealth{
		Status:    ComponentStatusUp,
		Message:   "log store healthy",
		LatencyMs: float64(latency.Milliseconds()),
	}
}

// determineOverallHealth calculates overall health from component statuses
func determineOverallHealth(components map[string]ComponentHealth) HealthStatus {
	var down, degraded int
	for _, c := range components {
		switch c.Status {
		case ComponentStatusDown:
			down++
		case ComponentStatusDegraded:
			degraded++
		}
	}

	if down > 0 {
		return HealthStatusUnhealthy
	}
	if degraded > 0 {
		return HealthStatusDegraded
	}
	return HealthStatusHealthy
}
