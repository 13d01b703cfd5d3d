// Package grpc serves the AccessControl service: authentication and
// permission checks for peer services that hold a caller's token.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Gate is the part of access.Gate the service needs.
type Gate interface {
	Authenticate(ctx context.Context, token string) (*access.Principal, error)
	CheckPermission(ctx context.Context, p *access.Principal, documentID string, required models.LevelSet) (*access.Principal, error)
}

type ResourceVerifier interface {
	VerifyResourceToken(ctx context.Context, token string) (string, time.Time, error)
}

type AccessControlServer struct {
	address   string
	gate      Gate
	resources ResourceVerifier
	logger    logging.Logger
}

func NewAccessControlServer(address string, gate Gate, resources ResourceVerifier, logger logging.Logger) *AccessControlServer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &AccessControlServer{
		address:   address,
		gate:      gate,
		resources: resources,
		logger:    logger.With("module", "grpc_server"),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *AccessControlServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *AccessControlServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	srv.RegisterService(&AccessControlServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *AccessControlServer) Authenticate(ctx context.Context, _ *AuthenticateRequest) (*PrincipalResponse, error) {
	p, ok := access.PrincipalFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrMissingCredentials)
	}
	return toPrincipalResponse(p), nil
}

func (s *AccessControlServer) Authorize(ctx context.Context, req *AuthorizeRequest) (*PrincipalResponse, error) {
	p, ok := access.PrincipalFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrMissingCredentials)
	}
	if len(req.Required) == 0 {
		return nil, toStatus(fmt.Errorf("%w: required levels must not be empty", common.ErrValidation))
	}

	levels := make([]models.Level, 0, len(req.Required))
	for _, r := range req.Required {
		l, err := models.ParseLevel(r)
		if err != nil {
			return nil, toStatus(err)
		}
		levels = append(levels, l)
	}

	out, err := s.gate.CheckPermission(ctx, p, req.DocumentID, models.Levels(levels...))
	if err != nil {
		if common.Classify(err) == common.KindInternal {
			s.logger.Error(ctx, "authorize failed", "document_id", req.DocumentID, "error", err)
		}
		return nil, toStatus(err)
	}
	return toPrincipalResponse(out), nil
}

func (s *AccessControlServer) VerifyResourceToken(ctx context.Context, req *VerifyResourceTokenRequest) (*VerifyResourceTokenResponse, error) {
	id, exp, err := s.resources.VerifyResourceToken(ctx, req.Token)
	if err != nil {
		return nil, toStatus(err)
	}
	return &VerifyResourceTokenResponse{ResourceID: id, ExpiresAt: exp}, nil
}

func toPrincipalResponse(p *access.Principal) *PrincipalResponse {
	return &PrincipalResponse{
		UserID:     p.UserID,
		Username:   p.UserName,
		Email:      p.Email,
		Role:       string(p.Role),
		DocumentID: p.DocumentID,
		Level:      string(p.Level),
	}
}
