// Package grpc serves the internal identity API used by sibling services to
// resolve bearer tokens, plus the standard health service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	address  string
	guard    *auth.Guard
	policies auth.Policies
	logger   logging.Logger
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, g *auth.Guard, p auth.Policies) *GRPCServer {
	if p == nil {
		p = DefaultPolicies()
	}
	return &GRPCServer{
		address:  a,
		guard:    g,
		policies: p,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
	}
}

// Authenticate returns the caller resolved by the guard interceptor.
func (s *GRPCServer) Authenticate(ctx context.Context, _ *AuthenticateRequest) (*IdentityResponse, error) {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return nil, toStatus(common.Unauthorized(common.MsgMissingToken))
	}
	return &IdentityResponse{Account: account.Public()}, nil
}

// Authorize additionally requires the caller to hold one of in.Roles.
func (s *GRPCServer) Authorize(ctx context.Context, in *AuthorizeRequest) (*IdentityResponse, error) {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return nil, toStatus(common.Unauthorized(common.MsgMissingToken))
	}
	for _, r := range in.Roles {
		if !r.Valid() {
			return nil, toStatus(common.Validation("unknown role %q", r))
		}
	}
	if err := auth.AuthorizeRoles(account, in.Roles); err != nil {
		return nil, toStatus(err)
	}
	return &IdentityResponse{Account: account.Public()}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.guardInterceptor))
	srv.RegisterService(&IdentityServiceDesc, s)
	grpc_health_v1.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(IdentityServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return srv
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
