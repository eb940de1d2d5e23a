// Package grpc runs the gRPC side of the server: the standard health
// service and reflection, behind timeout and logging interceptors. It
// carries no domain service; subjects, sessions and calendars are served
// only by the REST API in internal/transport/rest.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name the serving status is reported under, alongside
// the empty overall name.
const ServiceName = "mentorweb.v1.Schedules"

// NewServer builds a gRPC server with health and reflection registered.
// Health starts as SERVING; call Shutdown on it before stopping the server.
func NewServer(log *slog.Logger, requestTimeout time.Duration) (*grpc.Server, *health.Server) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc"))

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RequestTimeoutInterceptor(requestTimeout),
			LoggingInterceptor(log),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return s, hs
}

// RequestTimeoutInterceptor applies timeout to calls that arrive without a
// deadline.
func RequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		args := []any{
			slog.String("rpc", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			args = append(args, slog.Any("err", err))
			log.Warn("rpc failed", args...)
			return resp, err
		}
		log.Debug("rpc", args...)
		return resp, nil
	}
}
