package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the clash table.
const ServiceName = "coinclash.Table"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// HealthServer serves grpc.health.v1 and reports SERVING while the database
// answers pings.
type HealthServer struct {
	addr     string
	db       Pinger
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger

	grpc   *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewHealthServer builds a health endpoint listening on addr.
//
// Precondition: db and logger must be non-nil; timeout and interval must be positive.
func NewHealthServer(addr string, db Pinger, timeout, interval time.Duration, logger *zap.Logger) *HealthServer {
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		addr:     addr,
		db:       db,
		timeout:  timeout,
		interval: interval,
		logger:   logger,
		grpc:     gs,
		health:   hs,
		done:     make(chan struct{}),
	}
}

// Listen binds the listener without serving. Start calls it if needed.
//
// Postcondition: Addr returns the bound address.
func (s *HealthServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound listen address, or the configured address before Listen.
func (s *HealthServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Probe pings the database once and updates the serving status.
//
// Postcondition: Returns the status that was set.
func (s *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Health(ctx, s.timeout); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("database health probe failed", zap.Error(err))
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

// Start probes the database on an interval and serves health checks until Stop.
func (s *HealthServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	ln := s.listener
	s.mu.Unlock()

	go s.probeLoop(ctx)

	s.logger.Info("health server listening", zap.String("addr", ln.Addr().String()))
	if err := s.grpc.Serve(ln); err != nil {
		return fmt.Errorf("serving health: %w", err)
	}
	return nil
}

func (s *HealthServer) probeLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Stop marks the service NOT_SERVING and drains in-flight checks.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-s.done
	}
	s.grpc.GracefulStop()
}
