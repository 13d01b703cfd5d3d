package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	ServiceName = protoPackage + ".AccessControl"

	methodAuthenticate        = "/" + ServiceName + "/Authenticate"
	methodAuthorize           = "/" + ServiceName + "/Authorize"
	methodVerifyResourceToken = "/" + ServiceName + "/VerifyResourceToken"
)

// The request and response types below mirror the messages of
// access.proto; they travel as protobuf on the wire.

// AuthenticateRequest may carry the identity token in Token; the
// access_token metadata entry takes precedence.
type AuthenticateRequest struct {
	Token string
}

type AuthorizeRequest struct {
	Token      string
	DocumentID string
	Required   []string
}

type PrincipalResponse struct {
	UserID     string
	Username   string
	Email      string
	Role       string
	DocumentID string
	Level      string
}

type VerifyResourceTokenRequest struct {
	Token string
}

type VerifyResourceTokenResponse struct {
	ResourceID string
	ExpiresAt  time.Time
}

func (r *AuthenticateRequest) GetToken() string { return r.Token }
func (r *AuthorizeRequest) GetToken() string    { return r.Token }

// AccessControlService is implemented by the server side.
type AccessControlService interface {
	Authenticate(context.Context, *AuthenticateRequest) (*PrincipalResponse, error)
	Authorize(context.Context, *AuthorizeRequest) (*PrincipalResponse, error)
	VerifyResourceToken(context.Context, *VerifyResourceTokenRequest) (*VerifyResourceTokenResponse, error)
}

func authenticateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	msg := dynamicpb.NewMessage(authenticateRequestDesc)
	if err := dec(msg); err != nil {
		return nil, err
	}
	in := authenticateRequestFromProto(msg)
	if interceptor == nil {
		return encode(srv.(AccessControlService).Authenticate(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAuthenticate}
	handler := func(ctx context.Context, req any) (any, error) {
		return encode(srv.(AccessControlService).Authenticate(ctx, req.(*AuthenticateRequest)))
	}
	return interceptor(ctx, in, info, handler)
}

func authorizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	msg := dynamicpb.NewMessage(authorizeRequestDesc)
	if err := dec(msg); err != nil {
		return nil, err
	}
	in := authorizeRequestFromProto(msg)
	if interceptor == nil {
		return encode(srv.(AccessControlService).Authorize(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAuthorize}
	handler := func(ctx context.Context, req any) (any, error) {
		return encode(srv.(AccessControlService).Authorize(ctx, req.(*AuthorizeRequest)))
	}
	return interceptor(ctx, in, info, handler)
}

func verifyResourceTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	msg := dynamicpb.NewMessage(verifyRequestDesc)
	if err := dec(msg); err != nil {
		return nil, err
	}
	in := verifyRequestFromProto(msg)
	if interceptor == nil {
		return encode(srv.(AccessControlService).VerifyResourceToken(ctx, in))
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodVerifyResourceToken}
	handler := func(ctx context.Context, req any) (any, error) {
		return encode(srv.(AccessControlService).VerifyResourceToken(ctx, req.(*VerifyResourceTokenRequest)))
	}
	return interceptor(ctx, in, info, handler)
}

var AccessControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccessControlService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: authenticateHandler},
		{MethodName: "Authorize", Handler: authorizeHandler},
		{MethodName: "VerifyResourceToken", Handler: verifyResourceTokenHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFileName,
}

type protoMessage interface {
	toProto() *dynamicpb.Message
}

// encode turns a service result into its wire message.
func encode(out protoMessage, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return out.toProto(), nil
}

// Client calls AccessControl over the default protobuf codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*PrincipalResponse, error) {
	out := dynamicpb.NewMessage(principalDesc)
	if err := c.cc.Invoke(ctx, methodAuthenticate, in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return principalFromProto(out), nil
}

func (c *Client) Authorize(ctx context.Context, in *AuthorizeRequest, opts ...grpc.CallOption) (*PrincipalResponse, error) {
	out := dynamicpb.NewMessage(principalDesc)
	if err := c.cc.Invoke(ctx, methodAuthorize, in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return principalFromProto(out), nil
}

func (c *Client) VerifyResourceToken(ctx context.Context, in *VerifyResourceTokenRequest, opts ...grpc.CallOption) (*VerifyResourceTokenResponse, error) {
	out := dynamicpb.NewMessage(verifyResponseDesc)
	if err := c.cc.Invoke(ctx, methodVerifyResourceToken, in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return verifyResponseFromProto(out), nil
}
