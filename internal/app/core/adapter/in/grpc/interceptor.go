package grpc

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor 記錄每個 unary 呼叫的方法、狀態碼與耗時
func LoggingInterceptor(logger glog.Logger) grpclib.UnaryServerInterceptor {
	logger = glog.Ensure(logger)
	return func(ctx context.Context, req any, info *grpclib.UnaryServerInfo, handler grpclib.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.WithContext(ctx).Debug("grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start).String(),
		)
		return resp, err
	}
}
