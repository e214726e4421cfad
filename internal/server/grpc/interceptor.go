package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultPolicies is the access table of the gRPC server, keyed by full
// method name.
func DefaultPolicies() auth.Policies {
	return auth.Policies{
		AuthenticateFullMethod:                     auth.Authenticated(),
		AuthorizeFullMethod:                        auth.Authenticated(),
		grpc_health_v1.Health_Check_FullMethodName: auth.Public(),
	}
}

// toStatus maps the error taxonomy onto gRPC codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		code = codes.Unauthenticated
	case errors.Is(err, common.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrBadRequest):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrConflict):
		code = codes.AlreadyExists
	default:
		return status.Error(codes.Internal, "Internal server error")
	}
	return status.Error(code, common.Message(err, code.String()))
}

func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(strings.ToLower(common.AuthorizationHeaderName))
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// guardInterceptor runs the access guard with the policy of the called
// method. Methods without a policy are refused.
func (s *GRPCServer) guardInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	policy, err := s.policies.Resolve(info.FullMethod)
	if err != nil {
		s.logger.Warn(ctx, "call to method without policy", "method", info.FullMethod)
		return nil, status.Error(codes.PermissionDenied, "method is not exposed")
	}

	account, err := s.guard.Check(ctx, policy, authorizationFromMetadata(ctx))
	if err != nil {
		if status.Code(toStatus(err)) == codes.Internal {
			s.logger.Error(ctx, "guard failed", "method", info.FullMethod, "error", err)
		}
		return nil, toStatus(err)
	}
	if account != nil {
		ctx = auth.ContextWithAccount(ctx, account)
	}

	return handler(ctx, req)
}
