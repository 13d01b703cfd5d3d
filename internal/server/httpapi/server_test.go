package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/auth"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docshare/internal/server/services"
	"github.com/dmitrijs2005/docshare/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubPresigner struct{}

func (stubPresigner) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://s3.test/get/" + key + "?ttl=" + ttl.String(), nil
}

func (stubPresigner) PresignPut(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "https://s3.test/put/" + key, nil
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	users   *services.UserService
	clk     *clock.FakeClock
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithLogger(t, logging.Nop())
}

func newTestAPIWithLogger(t *testing.T, log logging.Logger) *testAPI {
	t.Helper()

	db := testutil.OpenSQLite(t)
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rm, err := repomanager.NewSQLRepositoryManager(repomanager.DialectSQLite, clk)
	require.NoError(t, err)

	tokens := auth.NewTokenAuthority([]byte("http-secret"), 0, 0, clk, log)
	gate := access.NewGate(tokens, rm.Users(db), rm.Permissions(db), log)
	users := services.NewUserService(db, rm, tokens, auth.NewBcryptHasher(bcrypt.MinCost), log)

	srv := NewServer(":0", Deps{
		Gate:      gate,
		Users:     users,
		Sharing:   services.NewSharingService(db, rm, gate, log),
		Documents: services.NewDocumentService(db, rm, gate, stubPresigner{}, 0, clk, log),
		Downloads: services.NewDownloadService(db, rm, gate, tokens, stubPresigner{}, "https://docs.example.com", clk, log),
		Tags:      services.NewTagService(db, rm, gate, log),
	}, log)

	return &testAPI{t: t, handler: srv.Handler(), users: users, clk: clk}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signUp registers and logs in name, returning the user id and token.
func (a *testAPI) signUp(name string) (string, string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", registerRequest{
		Username: name, Email: name + "@example.com", Password: "secret-" + name,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/login", "", loginRequest{Username: name, Password: "secret-" + name})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[loginResponse](a.t, rec)
	return out.User.ID, out.Token
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	echoed := httptest.NewRecorder()
	api.handler.ServeHTTP(echoed, req)
	assert.Equal(t, "req-1", echoed.Header().Get("X-Request-ID"))
}

func TestAuth_Failures(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("alice")

	rec := api.do(http.MethodPost, "/api/documents", "", documentRequest{FileName: "a.txt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = api.do(http.MethodPost, "/api/documents", "not-a-jwt", documentRequest{FileName: "a.txt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", "", loginRequest{Username: "alice", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode[errorResponse](t, rec).Error)

	rec = api.do(http.MethodPost, "/api/auth/register", "", registerRequest{Username: "alice", Email: "x@example.com", Password: "longenough"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/register", "", registerRequest{Username: "dave", Email: "nope", Password: "longenough"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	raw := httptest.NewRecorder()
	api.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestSharingFlow(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp("alice")
	bobID, bob := api.signUp("bob")
	_, carol := api.signUp("carol")

	rec := api.do(http.MethodPost, "/api/documents", alice, documentRequest{FileName: "plan.md"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[documentResponse](t, rec)

	rec = api.do(http.MethodGet, "/api/documents/"+doc.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/permissions/share/"+doc.ID, alice, shareRequest{Email: "bob@example.com", Level: "Editor"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	perm := decode[permissionResponse](t, rec)
	assert.Equal(t, bobID, perm.UserID)
	assert.Equal(t, "Editor", perm.Level)

	rec = api.do(http.MethodPost, "/api/permissions/share/"+doc.ID, bob, shareRequest{Email: "carol@example.com", Level: "Viewer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/permissions/share/"+doc.ID, carol, shareRequest{Email: "alice@example.com", Level: "Viewer"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/permissions/share/"+doc.ID, alice, shareRequest{Email: "bob@example.com", Level: "Owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/permissions/share/"+doc.ID, alice, shareRequest{Email: "ghost@example.com", Level: "Viewer"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/documents/"+doc.ID, carol, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPut, "/api/documents/"+doc.ID, carol, documentRequest{FileName: "mine.md"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPut, "/api/documents/"+doc.ID, bob, documentRequest{FileName: "plan-v2.md"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plan-v2.md", decode[documentResponse](t, rec).FileName)

	rec = api.do(http.MethodGet, "/api/permissions/"+doc.ID, carol, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]permissionResponse](t, rec), 3)

	rec = api.do(http.MethodDelete, "/api/permissions/share/"+doc.ID, bob, unshareRequest{Email: "carol@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodDelete, "/api/permissions/share/"+doc.ID, alice, unshareRequest{Email: "carol@example.com"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/documents/"+doc.ID, carol, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/documents/"+doc.ID+"/upload-url", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode[uploadResponse](t, rec).URL, "https://s3.test/put/documents/"+doc.ID+"/"))

	rec = api.do(http.MethodDelete, "/api/documents/"+doc.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodDelete, "/api/documents/"+doc.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/documents/"+doc.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownloadLink(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp("alice")
	_, bob := api.signUp("bob")

	rec := api.do(http.MethodPost, "/api/documents", alice, documentRequest{FileName: "report.pdf"})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode[documentResponse](t, rec)

	rec = api.do(http.MethodPost, "/api/download/link", bob, linkRequest{FileID: doc.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/download/link", alice, linkRequest{FileID: doc.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	link := decode[linkResponse](t, rec)
	assert.Equal(t, "https://docs.example.com/api/download/"+link.Token, link.Link)

	api.clk.Advance(5 * time.Minute)
	rec = api.do(http.MethodGet, "/api/download/"+link.Token, "", nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "https://s3.test/get/documents/"+doc.ID+"/"))
	assert.True(t, strings.HasSuffix(loc, "?ttl=10m0s"), loc)

	rec = api.do(http.MethodGet, "/api/download/garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	api.clk.Advance(11 * time.Minute)
	rec = api.do(http.MethodGet, "/api/download/"+link.Token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTagRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.signUp("alice")
	_, bob := api.signUp("bob")

	rec := api.do(http.MethodPost, "/api/documents", alice, documentRequest{FileName: "report.pdf"})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode[documentResponse](t, rec)
	assert.Equal(t, []string{}, doc.Tags)

	rec = api.do(http.MethodPost, "/api/documents/"+doc.ID+"/tags", alice, tagRequest{Name: "q3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"q3"}, decode[documentResponse](t, rec).Tags)

	rec = api.do(http.MethodPost, "/api/documents/"+doc.ID+"/tags", alice, tagRequest{Name: "q3"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/documents/"+doc.ID+"/tags", alice, tagRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/documents/"+doc.ID+"/tags", bob, tagRequest{Name: "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPut, "/api/documents/"+doc.ID+"/tags", alice, renameTagRequest{OldName: "q3", NewName: "q4"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"q4"}, decode[documentResponse](t, rec).Tags)

	rec = api.do(http.MethodPut, "/api/documents/"+doc.ID+"/tags", alice, renameTagRequest{OldName: "nope", NewName: "q5"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/documents/"+doc.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"q4"}, decode[documentResponse](t, rec).Tags)

	rec = api.do(http.MethodDelete, "/api/documents/"+doc.ID+"/tags/q4", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{}, decode[documentResponse](t, rec).Tags)
}

func TestRequestLog_OmitsDownloadToken(t *testing.T) {
	var logs bytes.Buffer
	api := newTestAPIWithLogger(t, logging.NewJSONLogger(&logs, "debug"))
	_, alice := api.signUp("alice")

	rec := api.do(http.MethodPost, "/api/documents", alice, documentRequest{FileName: "report.pdf"})
	require.Equal(t, http.StatusCreated, rec.Code)
	doc := decode[documentResponse](t, rec)

	rec = api.do(http.MethodPost, "/api/download/link", alice, linkRequest{FileID: doc.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	link := decode[linkResponse](t, rec)

	rec = api.do(http.MethodGet, "/api/download/"+link.Token, "", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	// Unmatched method, so no pattern is recorded for it.
	rec = api.do(http.MethodDelete, "/api/download/"+link.Token, "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.NotContains(t, logs.String(), link.Token)
	assert.Contains(t, logs.String(), `"route":"GET /api/download/{token}"`)
	assert.Contains(t, logs.String(), `"route":"/api/download/{token}"`)
}

func TestAccountAndAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	bobID, bob := api.signUp("bob")

	_, err := api.users.RegisterAdmin(context.Background(), services.Registration{
		Username: "root", Email: "root@example.com", Password: "root-password",
	})
	require.NoError(t, err)
	rec := api.do(http.MethodPost, "/api/auth/login", "", loginRequest{Username: "root", Password: "root-password"})
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode[loginResponse](t, rec).Token

	rec = api.do(http.MethodPost, "/api/admin/users", bob, registerRequest{Username: "x", Email: "x@example.com", Password: "password"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/admin/users", root, registerRequest{Username: "ops", Email: "ops@example.com", Password: "password"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Admin", decode[userResponse](t, rec).Role)

	rec = api.do(http.MethodPut, "/api/admin/users/"+bobID+"/role", root, roleRequest{Role: "Superuser"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/admin/users/"+bobID+"/role", root, roleRequest{Role: "Admin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Admin", decode[userResponse](t, rec).Role)

	newName := "robert"
	rec = api.do(http.MethodPut, "/api/auth/profile", bob, profileRequest{Username: &newName})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "robert", decode[userResponse](t, rec).Username)

	rec = api.do(http.MethodDelete, "/api/auth/account", bob, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodPost, "/api/documents", bob, documentRequest{FileName: "late.txt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	rec := httptest.NewRecorder()
	srv := NewServer(":0", Deps{}, nil)
	srv.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode[errorResponse](t, rec).Error)
}
