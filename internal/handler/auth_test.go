package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reelhub/internal/model"
)

func TestAuthHandler_HandleLogin(t *testing.T) {
	f := newFixture(t)
	sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
	require.NoError(t, err)
	userID := f.seedMember(t, sessionID, "ann", "secret")

	t.Run("correct credentials", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.login.HandleLogin(rr, post("/login", url.Values{"userName": {"ann"}, "password": {"secret"}}, nil))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))

		next := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rr.Result().Cookies() {
			next.AddCookie(c)
		}
		id, err := f.identities.Load(next)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, userID, id.UserID)
		assert.Equal(t, "ann-nick", id.Nickname)
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := post("/login", url.Values{"userName": {"ann"}, "password": {"nope"}}, nil)
		f.login.HandleLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "login", f.renderer.name)
		assert.NotEmpty(t, f.renderer.data["error"])
		assert.Equal(t, "ann", f.renderer.data["userName"])

		next := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rr.Result().Cookies() {
			next.AddCookie(c)
		}
		id, err := f.identities.Load(next)
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("unknown user", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.login.HandleLogin(rr, post("/login", url.Values{"userName": {"bob"}, "password": {"secret"}}, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthHandler_AlreadyLoggedIn(t *testing.T) {
	f := newFixture(t)
	id := &model.Identity{UserID: 1, Name: "ann"}

	rr := httptest.NewRecorder()
	f.login.HandleLoginForm(rr, as(get("/login", nil), id))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	f.login.HandleLogin(rr, as(post("/login", url.Values{}, nil), id))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestAuthHandler_HandleLoginForm(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.login.HandleLoginForm(rr, get("/login", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "login", f.renderer.name)
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.login.HandleLogout(rr, as(get("/logout", nil), &model.Identity{UserID: 1}))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)
}
