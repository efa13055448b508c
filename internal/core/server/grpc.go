// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/solatis/rulesynth/internal/core/api"
	"github.com/solatis/rulesynth/internal/core/auth"
	"github.com/solatis/rulesynth/internal/core/config"
	"github.com/solatis/rulesynth/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// shutdownTimeout caps graceful shutdown before a forced stop.
const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config config.ServerConfig
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewGRPCServer creates a gRPC server with logging, timeout and auth
// interceptors and registers the ExactMatch and health services.
func NewGRPCServer(cfg config.ServerConfig, service api.ExactMatchServer, authenticator *auth.Authenticator, log *slog.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConnections)),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(log),
			timeoutInterceptor(cfg.RequestTimeout),
			authenticator.UnaryInterceptor(),
		),
	}

	server := grpc.NewServer(opts...)
	api.RegisterExactMatchServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: log,
	}, nil
}

// loggingInterceptor attaches a request logger to the context and logs
// every call with its status code.
func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		reqLog := log.With("method", info.FullMethod)
		resp, err := handler(logger.WithContext(ctx, reqLog), req)

		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		reqLog.Log(ctx, level, "rpc completed",
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds())
		return resp, err
	}
}

// timeoutInterceptor bounds each call by d.
func timeoutInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return handler(ctx, req)
	}
}

// Listen binds the configured address. Start calls it when needed.
func (s *GRPCServer) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr(), nil
	}

	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.listener = listener
	return listener.Addr(), nil
}

// Start serves gRPC requests until Shutdown is called.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "grpc server listening", "addr", addr.String())

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	return s.server.Serve(listener)
}

// Shutdown stops the server gracefully, forcing a stop after 30 seconds or
// when ctx is done.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
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
