package server

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/price-tracker/internal/common"
)

// RequestIDHeader is read from incoming metadata and echoed in the response header.
const RequestIDHeader = "x-request-id"

// UnaryInterceptor tags each call with a request id, recovers panics, maps
// domain errors to status codes and logs the outcome.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		rid := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDHeader); len(vals) > 0 {
				rid = vals[0]
			}
		}
		if rid != "" {
			ctx = common.WithRequestID(ctx, rid)
		}
		ctx, rid = common.EnsureRequestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, rid))

		defer func() {
			if p := recover(); p != nil {
				logger.Error("grpc.panic", "req_id", rid, "method", info.FullMethod, "panic", p, "stack", string(debug.Stack()))
				resp, err = nil, common.ToGRPCError(fmt.Errorf("%w: panic in %s", common.ErrInternal, info.FullMethod))
			}
		}()

		resp, err = handler(ctx, req)
		if err != nil {
			mapped := common.ToGRPCError(err)
			code := status.Code(mapped)
			level := slog.LevelWarn
			if code == codes.Internal || code == codes.Unknown {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "grpc.request.failed",
				"req_id", rid,
				"method", info.FullMethod,
				"code", code.String(),
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, mapped
		}
		logger.Info("grpc.request.ok",
			"req_id", rid,
			"method", info.FullMethod,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, nil
	}
}
