// Package health tracks storage reachability and publishes it over the gRPC
// health checking protocol and to the HTTP health route.
package health

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/PaulBabatuyi/bookhub/internal/logging"
)

// ServiceName is the name probes ask for; "" reports the same status.
const ServiceName = "bookhub.v1.Books"

// Pinger is satisfied by *db.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor polls a Pinger and mirrors the result into a gRPC health server.
type Monitor struct {
	pinger   Pinger
	srv      *health.Server
	log      logging.Logger
	interval time.Duration
	timeout  time.Duration

	mu      sync.RWMutex
	lastErr error
	checked time.Time
}

func NewMonitor(p Pinger, log logging.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m := &Monitor{
		pinger:   p,
		srv:      health.NewServer(),
		log:      log,
		interval: interval,
		timeout:  2 * time.Second,
	}
	m.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return m
}

// Check pings storage once and records the outcome.
func (m *Monitor) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := m.pinger.Ping(ctx)

	m.mu.Lock()
	prev := m.lastErr
	m.lastErr = err
	m.checked = time.Now()
	m.mu.Unlock()

	if err != nil {
		m.set(healthpb.HealthCheckResponse_NOT_SERVING)
		if prev == nil {
			m.log.Warn(ctx, "storage unreachable", "err", err)
		}
		return err
	}
	m.set(healthpb.HealthCheckResponse_SERVING)
	if prev != nil {
		m.log.Info(ctx, "storage reachable again")
	}
	return nil
}

// Run checks immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	_ = m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Status returns when the last check ran and its result. A zero time means
// no check has completed yet.
func (m *Monitor) Status() (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checked, m.lastErr
}

// Register exposes the health and reflection services on s.
func (m *Monitor) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, m.srv)
	reflection.Register(s)
}

// Shutdown marks every service NOT_SERVING so watchers drain before stop.
func (m *Monitor) Shutdown() { m.srv.Shutdown() }

func (m *Monitor) set(st healthpb.HealthCheckResponse_ServingStatus) {
	m.srv.SetServingStatus("", st)
	m.srv.SetServingStatus(ServiceName, st)
}
