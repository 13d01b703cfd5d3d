package grpc

import (
	"context"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// identityMethods need an authenticated principal in the context.
var identityMethods = map[string]bool{
	methodAuthenticate: true,
	methodAuthorize:    true,
}

type tokenCarrier interface {
	GetToken() string
}

func (s *AccessControlServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !identityMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		if c, ok := req.(tokenCarrier); ok {
			accessToken = c.GetToken()
		}
	}
	if accessToken == "" {
		return nil, toStatus(common.ErrMissingCredentials)
	}

	p, err := s.gate.Authenticate(ctx, accessToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(access.WithPrincipal(ctx, p), req)
}
