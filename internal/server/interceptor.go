package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "x-request-id"

type requestIDKey struct{}

// RequestID returns the id assigned to the request in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// loggingInterceptor stamps each unary call with a request id and logs its
// completion.
func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := uuid.NewString()
		ctx = context.WithValue(ctx, requestIDKey{}, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id)) // best-effort

		start := time.Now()
		resp, err := handler(ctx, req)

		l := log.With("request_id", id, "method", info.FullMethod, "duration", time.Since(start))
		if err != nil {
			l.Warn("request failed", "code", status.Code(err), "err", err)
		} else {
			l.Debug("request served")
		}
		return resp, err
	}
}
