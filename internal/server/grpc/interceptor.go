package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var reqID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDHeaderName); len(values) > 0 {
			reqID = values[0]
		}
	}
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, reqID)

	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	fields := []any{
		"method", info.FullMethod,
		"code", code.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	switch code {
	case codes.OK:
		s.logger.Debug(ctx, "grpc request completed", fields...)
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		s.logger.Error(ctx, "grpc request completed", fields...)
	default:
		s.logger.Warn(ctx, "grpc request completed", fields...)
	}

	return resp, err
}
