// Package grpc содержит gRPC сервер со стандартной проверкой здоровья.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"nlnotes/internal/notes/config"
	"nlnotes/pkg/logger"
)

// ServiceName - имя сервиса в ответах health.
const ServiceName = "nlnotes.Notes"

// HealthChecker проверяет доступность хранилища.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server представляет gRPC сервер.
type Server struct {
	server   *grpc.Server
	health   *health.Server
	checker  HealthChecker
	address  string
	listener net.Listener
}

// New создает новый экземпляр gRPC сервера. checker может быть nil.
func New(cfg *config.GRPCConfig, checker HealthChecker) *Server {
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor))
	healthServer := health.NewServer()

	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return &Server{
		server:  server,
		health:  healthServer,
		checker: checker,
		address: cfg.GetAddress(),
	}
}

// RegisterService регистрирует дополнительные gRPC сервисы.
func (s *Server) RegisterService(registerFunc func(*grpc.Server)) {
	registerFunc(s.server)
}

// Addr возвращает адрес, на котором слушает сервер, после Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.address
}

// Start запускает gRPC сервер.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Log(ctx)

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.Check(ctx)
	log.Info(ctx, "gRPC server started", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error(ctx, "failed to serve gRPC", zap.Error(err))
		}
	}()

	return nil
}

// Check обновляет статус по доступности хранилища.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	state := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		if err := s.checker.Ping(ctx); err != nil {
			logger.Log(ctx).Warn(ctx, "storage health check failed", zap.Error(err))
			state = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", state)
	s.health.SetServingStatus(ServiceName, state)
	return state
}

// Watch периодически вызывает Check до отмены ctx.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Stop переводит сервис в NOT_SERVING и останавливает сервер.
// Если ctx истекает раньше, активные вызовы прерываются.
func (s *Server) Stop(ctx context.Context) error {
	log := logger.Log(ctx)
	log.Info(ctx, "stopping gRPC server")

	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("graceful stop: %w", ctx.Err())
	}
}

func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	logger.Log(ctx).Debug(ctx, "gRPC call",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)))

	return resp, err
}
