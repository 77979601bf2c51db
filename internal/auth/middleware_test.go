package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reelhub/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadIdentity(t *testing.T) {
	store := newTestIdentityStore()
	var seen *model.Identity
	h := LoadIdentity(store, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
	}))

	t.Run("anonymous", func(t *testing.T) {
		seen = nil
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Nil(t, seen)
	})

	t.Run("logged in", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, store.Save(rec, httptest.NewRequest(http.MethodPost, "/login", nil),
			&model.Identity{UserID: 4, Name: "bob"}))

		seen = nil
		h.ServeHTTP(httptest.NewRecorder(), carryCookies(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		require.NotNil(t, seen)
		assert.Equal(t, int64(4), seen.UserID)
	})

	t.Run("forged cookie is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionName, Value: "forged"})

		seen = nil
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Nil(t, seen)
	})
}

func TestRequireLogin(t *testing.T) {
	h := RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	req = req.WithContext(WithIdentity(req.Context(), &model.Identity{UserID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	forbidden := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	h := RequireAdmin(forbidden)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		identity *model.Identity
		want     int
	}{
		{"anonymous", nil, http.StatusSeeOther},
		{"member", &model.Identity{UserID: 2}, http.StatusForbidden},
		{"admin", &model.Identity{UserID: 1, IsAdmin: true}, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/categories", nil)
			if tc.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), tc.identity))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
