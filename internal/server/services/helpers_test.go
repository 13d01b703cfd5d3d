package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/auth"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docshare/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type presignCall struct {
	method string
	key    string
	ttl    time.Duration
}

type fakePresigner struct {
	mu    sync.Mutex
	calls []presignCall
	err   error
}

func (f *fakePresigner) record(method, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, presignCall{method, key, ttl})
	if f.err != nil {
		return "", f.err
	}
	return "https://s3.test/" + method + "/" + key, nil
}

func (f *fakePresigner) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return f.record("get", key, ttl)
}

func (f *fakePresigner) PresignPut(_ context.Context, key string, ttl time.Duration) (string, error) {
	return f.record("put", key, ttl)
}

func (f *fakePresigner) last() presignCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type env struct {
	db        *sql.DB
	rm        *repomanager.SQLRepositoryManager
	clk       *clock.FakeClock
	tokens    *auth.TokenAuthority
	gate      *access.Gate
	presigner *fakePresigner

	users     *UserService
	sharing   *SharingService
	documents *DocumentService
	downloads *DownloadService
	tags      *TagService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.OpenSQLite(t)
	clk := clock.Fake(epoch)
	rm, err := repomanager.NewSQLRepositoryManager(repomanager.DialectSQLite, clk)
	require.NoError(t, err)

	log := logging.Nop()
	tokens := auth.NewTokenAuthority([]byte("test-secret"), 0, 0, clk, log)
	gate := access.NewGate(tokens, rm.Users(db), rm.Permissions(db), log)
	presigner := &fakePresigner{}

	return &env{
		db:        db,
		rm:        rm,
		clk:       clk,
		tokens:    tokens,
		gate:      gate,
		presigner: presigner,
		users:     NewUserService(db, rm, tokens, auth.NewBcryptHasher(bcrypt.MinCost), log),
		sharing:   NewSharingService(db, rm, gate, log),
		documents: NewDocumentService(db, rm, gate, presigner, 0, clk, log),
		downloads: NewDownloadService(db, rm, gate, tokens, presigner, "https://docs.example.com/", clk, log),
		tags:      NewTagService(db, rm, gate, log),
	}
}

// signUp registers name and returns its authenticated principal.
func (e *env) signUp(t *testing.T, name string) *access.Principal {
	t.Helper()
	ctx := context.Background()

	_, err := e.users.Register(ctx, Registration{Username: name, Email: name + "@example.com", Password: "password-" + name})
	require.NoError(t, err)

	s, err := e.users.Login(ctx, name, "password-"+name)
	require.NoError(t, err)

	p, err := e.gate.Authenticate(ctx, s.Token)
	require.NoError(t, err)
	return p
}

func (e *env) level(t *testing.T, documentID, userID string) (models.Level, bool) {
	t.Helper()
	l, ok, err := e.rm.Permissions(e.db).Lookup(context.Background(), documentID, userID)
	require.NoError(t, err)
	return l, ok
}
