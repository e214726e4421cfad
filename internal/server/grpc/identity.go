package grpc

import (
	"context"

	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"google.golang.org/grpc"
)

const (
	IdentityServiceName = "gestcard.identity.v1.Identity"

	AuthenticateFullMethod = "/" + IdentityServiceName + "/Authenticate"
	AuthorizeFullMethod    = "/" + IdentityServiceName + "/Authorize"
)

type AuthenticateRequest struct{}

type AuthorizeRequest struct {
	Roles []models.Role `json:"roles"`
}

// IdentityResponse describes the caller as it is stored now, not as its
// token claims.
type IdentityResponse struct {
	Account models.PublicAccount `json:"account"`
}

// IdentityServer lets sibling services resolve the bearer token they were
// handed.
type IdentityServer interface {
	Authenticate(ctx context.Context, in *AuthenticateRequest) (*IdentityResponse, error)
	Authorize(ctx context.Context, in *AuthorizeRequest) (*IdentityResponse, error)
}

func authenticateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AuthenticateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServer).Authenticate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthenticateFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServer).Authenticate(ctx, req.(*AuthenticateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func authorizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AuthorizeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServer).Authorize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthorizeFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServer).Authorize(ctx, req.(*AuthorizeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// IdentityServiceDesc is registered with grpc.Server.RegisterService.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: authenticateHandler},
		{MethodName: "Authorize", Handler: authorizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gestcard/identity/v1",
}

// IdentityClient calls the identity API over the JSON codec.
type IdentityClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{cc: cc}
}

func (c *IdentityClient) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*IdentityResponse, error) {
	out := new(IdentityResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, AuthenticateFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IdentityClient) Authorize(ctx context.Context, in *AuthorizeRequest, opts ...grpc.CallOption) (*IdentityResponse, error) {
	out := new(IdentityResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, AuthorizeFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
