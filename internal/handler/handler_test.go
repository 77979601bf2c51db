package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/handler"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/repository/sqlstore"
	"github.com/sakif/reelhub/internal/service"
)

// recordingRenderer keeps the last rendered view so tests can assert on the
// context keys instead of HTML.
type recordingRenderer struct {
	name string
	data map[string]any
}

func (r *recordingRenderer) Render(w http.ResponseWriter, status int, name string, data map[string]any) error {
	r.name = name
	r.data = data
	w.WriteHeader(status)
	return nil
}

type fixture struct {
	ctx        context.Context
	store      *sqlstore.DB
	renderer   *recordingRenderer
	identities *auth.IdentityStore
	passwords  *auth.PasswordService

	catalog  *handler.CatalogHandler
	login    *handler.AuthHandler
	sessions *handler.SessionHandler
	admin    *handler.AdminHandler
	progress *handler.ProgressHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	identities := auth.NewIdentityStore(auth.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false))
	renderer := &recordingRenderer{}

	catalogSvc := service.NewCatalogService(store, logger)
	progressSvc := service.NewProgressService(store, logger)
	sessionSvc := service.NewSessionService(store, passwords, logger)
	authSvc := service.NewAuthService(store, passwords, logger)

	return &fixture{
		ctx:        context.Background(),
		store:      store,
		renderer:   renderer,
		identities: identities,
		passwords:  passwords,
		catalog:    handler.NewCatalogHandler(catalogSvc, progressSvc, renderer, identities, logger),
		login:      handler.NewAuthHandler(authSvc, renderer, identities, logger),
		sessions:   handler.NewSessionHandler(sessionSvc, renderer, identities, logger),
		admin:      handler.NewAdminHandler(catalogSvc, sessionSvc, renderer, identities, logger),
		progress:   handler.NewProgressHandler(progressSvc, renderer, identities, logger),
	}
}

func (f *fixture) seedProject(t *testing.T, videos int) (categoryID, projectID int64) {
	t.Helper()
	categoryID, err := f.store.AddCategory(f.ctx, "Basics", "")
	require.NoError(t, err)
	projectID, err = f.store.CreateProject(f.ctx, "Intro", "first steps", categoryID)
	require.NoError(t, err)
	for i := 0; i < videos; i++ {
		_, err := f.store.AddVideo(f.ctx, projectID, "part", "https://videos.example/part")
		require.NoError(t, err)
	}
	return categoryID, projectID
}

func (f *fixture) seedMember(t *testing.T, sessionID int64, name, password string) int64 {
	t.Helper()
	hash, err := f.passwords.Hash(password)
	require.NoError(t, err)
	id, err := f.store.CreateUser(f.ctx, sessionID, name, name+"-nick", hash)
	require.NoError(t, err)
	return id
}

// get builds a GET request carrying chi URL params.
func get(target string, params map[string]string) *http.Request {
	return withParams(httptest.NewRequest(http.MethodGet, target, nil), params)
}

// post builds a form POST carrying chi URL params.
func post(target string, form url.Values, params map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withParams(req, params)
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// as attaches a logged-in identity the way auth.LoadIdentity would.
func as(req *http.Request, id *model.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}
