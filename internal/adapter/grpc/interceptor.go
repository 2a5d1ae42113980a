package grpc

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/redcloud442/aurora/internal/adapter/auth"
)

// healthServicePrefix marks the standard health service, which probes call without a token
const healthServicePrefix = "/grpc.health.v1.Health/"

// Authenticator resolves a bearer token to a member id
type Authenticator interface {
	MemberID(token string) (uuid.UUID, error)
}

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the bearer token from request metadata.
// If the token is missing or invalid, it returns status.Unauthenticated.
// If valid, it calls the handler with the member id attached to the context.
// Health checks pass through unauthenticated.
func AuthInterceptor(authenticator Authenticator) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		memberID, err := authenticator.MemberID(authHeaders[0])
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(auth.WithMemberID(ctx, memberID), req)
	}
}

// LoggingInterceptor logs every unary call with its outcome code
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = logger.With(zap.String("component", "grpc"))
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		code := status.Code(err)
		switch code {
		case codes.OK:
			logger.Debug("rpc", zap.String("method", info.FullMethod))
		case codes.Internal, codes.Unknown:
			logger.Error("rpc failed", zap.String("method", info.FullMethod), zap.Stringer("code", code), zap.Error(err))
		default:
			logger.Info("rpc rejected", zap.String("method", info.FullMethod), zap.Stringer("code", code), zap.Error(err))
		}
		return resp, err
	}
}
