package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakeGate struct {
	principals map[string]*access.Principal
	levels     map[string]models.Level
	ledgerErr  error
}

func (g *fakeGate) Authenticate(_ context.Context, token string) (*access.Principal, error) {
	p, ok := g.principals[token]
	if !ok {
		return nil, common.ErrMalformedToken
	}
	return p, nil
}

func (g *fakeGate) CheckPermission(_ context.Context, p *access.Principal, documentID string, required models.LevelSet) (*access.Principal, error) {
	if g.ledgerErr != nil {
		return nil, g.ledgerErr
	}
	l, ok := g.levels[documentID+"/"+p.UserID]
	if !ok {
		return nil, common.ErrNoPermission
	}
	if !models.LevelSatisfies(l, required) {
		return nil, common.ErrInsufficientPermission
	}
	out := *p
	out.DocumentID = documentID
	out.Level = l
	return &out, nil
}

type fakeResources struct{}

func (fakeResources) VerifyResourceToken(_ context.Context, token string) (string, time.Time, error) {
	if token == "expired" {
		return "", time.Time{}, common.ErrExpiredToken
	}
	return "doc-" + token, time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC), nil
}

func newTestServer() *AccessControlServer {
	gate := &fakeGate{
		principals: map[string]*access.Principal{
			"tok-alice": {UserID: "u-alice", UserName: "alice", Email: "alice@example.com", Role: models.RoleUser},
		},
		levels: map[string]models.Level{"d1/u-alice": models.LevelEditor},
	}
	return NewAccessControlServer("127.0.0.1:0", gate, fakeResources{}, logging.Nop())
}

func TestInterceptor_UnprotectedMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer()

	info := &grpc.UnaryServerInfo{FullMethod: methodVerifyResourceToken}
	handlerCalled := false
	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), &VerifyResourceTokenRequest{}, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled || resp != "ok" {
		t.Fatalf("handler not invoked correctly: called=%v resp=%v", handlerCalled, resp)
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newTestServer()

	info := &grpc.UnaryServerInfo{FullMethod: methodAuthenticate}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), &AuthenticateRequest{}, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != common.ErrMissingCredentials.Error() {
		t.Fatalf("unexpected message %q", status.Convert(err).Message())
	}
}

func TestInterceptor_InvalidToken(t *testing.T) {
	s := newTestServer()

	md := metadata.New(map[string]string{common.AccessTokenHeaderName: "not-a-valid-jwt"})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: methodAuthorize}
	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called for invalid token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(ctx, &AuthorizeRequest{}, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestInterceptor_MetadataTokenWinsOverBody(t *testing.T) {
	s := newTestServer()

	md := metadata.New(map[string]string{common.AccessTokenHeaderName: "tok-alice"})
	ctx := metadata.NewIncomingContext(context.Background(), md)
	info := &grpc.UnaryServerInfo{FullMethod: methodAuthenticate}

	var got *access.Principal
	h := func(ctx context.Context, req any) (any, error) {
		got, _ = access.PrincipalFromContext(ctx)
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(ctx, &AuthenticateRequest{Token: "garbage"}, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.UserID != "u-alice" {
		t.Fatalf("principal not propagated: %+v", got)
	}
}

func TestInterceptor_BodyTokenFallback(t *testing.T) {
	s := newTestServer()

	info := &grpc.UnaryServerInfo{FullMethod: methodAuthorize}
	var got *access.Principal
	h := func(ctx context.Context, req any) (any, error) {
		got, _ = access.PrincipalFromContext(ctx)
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(context.Background(), &AuthorizeRequest{Token: "tok-alice"}, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.UserName != "alice" {
		t.Fatalf("principal not propagated: %+v", got)
	}
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrExpiredToken, codes.Unauthenticated},
		{common.ErrInsufficientPermission, codes.PermissionDenied},
		{common.ErrDocumentNotFound, codes.NotFound},
		{common.ErrOwnerImmutable, codes.FailedPrecondition},
		{common.ErrValidation, codes.InvalidArgument},
		{errors.New("db down"), codes.Internal},
	}
	for _, c := range cases {
		if got := status.Code(toStatus(c.err)); got != c.code {
			t.Errorf("toStatus(%v) = %v, want %v", c.err, got, c.code)
		}
	}

	if msg := status.Convert(toStatus(errors.New("db down"))).Message(); msg != "internal error" {
		t.Errorf("internal details leaked: %q", msg)
	}
}
