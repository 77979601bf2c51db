package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/model"
)

func TestSessionHandler_HandleList(t *testing.T) {
	f := newFixture(t)
	mine, err := f.store.CreateSession(f.ctx, "Mine", "")
	require.NoError(t, err)
	_, err = f.store.CreateSession(f.ctx, "Other", "")
	require.NoError(t, err)
	userID := f.seedMember(t, mine, "ann", "secret")

	t.Run("member sees own sessions", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.sessions.HandleList(rr, as(get("/sessions", nil), &model.Identity{UserID: userID}))

		require.Equal(t, http.StatusOK, rr.Code)
		sessions, ok := f.renderer.data["sessions"].([]model.Session)
		require.True(t, ok)
		require.Len(t, sessions, 1)
		assert.Equal(t, "Mine", sessions[0].Title)
	})

	t.Run("admin sees all", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.sessions.HandleList(rr, as(get("/sessions", nil), &model.Identity{UserID: 99, IsAdmin: true}))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, f.renderer.data["sessions"], 2)
	})

	t.Run("anonymous goes to login", func(t *testing.T) {
		rr := httptest.NewRecorder()
		f.sessions.HandleList(rr, get("/sessions", nil))
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})
}

func TestSessionHandler_HandleEditForm(t *testing.T) {
	f := newFixture(t)
	sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "spring")
	require.NoError(t, err)
	userID := f.seedMember(t, sessionID, "ann", "secret")
	params := map[string]string{"id": fmt.Sprint(sessionID)}

	rr := httptest.NewRecorder()
	req := as(get(fmt.Sprintf("/sessions/%d/edit?user=%d", sessionID, userID), params), &model.Identity{UserID: userID})
	f.sessions.HandleEditForm(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "session_edit", f.renderer.name)
	assert.Equal(t, "Cohort", f.renderer.data["session"].(*model.Session).Title)
	assert.Len(t, f.renderer.data["users"], 1)
	assert.Equal(t, model.PermissionUser, f.renderer.data["permission"])

	selected, ok := f.renderer.data["selectedUser"].(*model.User)
	require.True(t, ok)
	require.NotNil(t, selected)
	assert.Equal(t, "ann", selected.Name)
}

func TestSessionHandler_HandleEditForm_UnknownSession(t *testing.T) {
	f := newFixture(t)

	rr := httptest.NewRecorder()
	f.sessions.HandleEditForm(rr, get("/sessions/42/edit", map[string]string{"id": "42"}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_HandleEdit(t *testing.T) {
	t.Run("user delete keeps the session", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)
		userID := f.seedMember(t, sessionID, "ann", "secret")
		params := map[string]string{"id": fmt.Sprint(sessionID)}

		rr := httptest.NewRecorder()
		form := url.Values{"userDelete": {"1"}, "deleteUserId": {fmt.Sprint(userID)}}
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", form, params))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, fmt.Sprintf("/sessions/%d/edit", sessionID), rr.Header().Get("Location"))

		_, err = f.store.GetSession(f.ctx, sessionID)
		assert.NoError(t, err)
		_, err = f.store.GetUser(f.ctx, userID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("created user becomes the selection", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)
		params := map[string]string{"id": fmt.Sprint(sessionID)}

		rr := httptest.NewRecorder()
		form := url.Values{
			"userSave": {"1"},
			"userName": {"bob"},
			"nickname": {"Bobby"},
			"password": {"pw"},
		}
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", form, params))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		created, err := f.store.GetUserByName(f.ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("/sessions/%d/edit?user=%d", sessionID, created.ID), rr.Header().Get("Location"))
	})

	t.Run("session delete goes back to the list", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", url.Values{"sessionDelete": {"1"}},
			map[string]string{"id": fmt.Sprint(sessionID)}))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/sessions", rr.Header().Get("Location"))
		_, err = f.store.GetSession(f.ctx, sessionID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("invalid input re-renders with errors", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		form := url.Values{"sessionUpdate": {"1"}, "title": {"  "}}
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", form, map[string]string{"id": fmt.Sprint(sessionID)}))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "session_edit", f.renderer.name)
		errs, ok := f.renderer.data["errors"].([]*apperror.AppError)
		require.True(t, ok)
		require.Len(t, errs, 1)
		assert.Equal(t, "title", errs[0].Field)
	})

	t.Run("updated user stays selected", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)
		userID := f.seedMember(t, sessionID, "ann", "secret")
		params := map[string]string{"id": fmt.Sprint(sessionID)}

		rr := httptest.NewRecorder()
		form := url.Values{
			"userSave": {"1"},
			"userId":   {fmt.Sprint(userID)},
			"userName": {"ann"},
			"nickname": {"Annie"},
			"password": {"secret2"},
		}
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", form, params))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, fmt.Sprintf("/sessions/%d/edit?user=%d", sessionID, userID), rr.Header().Get("Location"))
	})

	t.Run("failed update keeps the user selected", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)
		userID := f.seedMember(t, sessionID, "ann", "secret")
		params := map[string]string{"id": fmt.Sprint(sessionID)}

		rr := httptest.NewRecorder()
		form := url.Values{
			"userSave": {"1"},
			"userId":   {fmt.Sprint(userID)},
			"userName": {"ann"},
			"nickname": {"Annie"},
			"password": {""},
		}
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", form, params))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "session_edit", f.renderer.name)
		selected, ok := f.renderer.data["selectedUser"].(*model.User)
		require.True(t, ok)
		require.NotNil(t, selected)
		assert.Equal(t, userID, selected.ID)
	})

	t.Run("deleting yourself logs you out", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)
		userID := f.seedMember(t, sessionID, "ann", "secret")
		params := map[string]string{"id": fmt.Sprint(sessionID)}

		rr := httptest.NewRecorder()
		form := url.Values{"userDelete": {"1"}, "deleteUserId": {fmt.Sprint(userID)}}
		req := as(post("/sessions/x/edit", form, params), &model.Identity{UserID: userID, Name: "ann"})
		f.sessions.HandleEdit(rr, req)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("deleting another member keeps your login", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)
		userID := f.seedMember(t, sessionID, "ann", "secret")
		params := map[string]string{"id": fmt.Sprint(sessionID)}

		rr := httptest.NewRecorder()
		form := url.Values{"userDelete": {"1"}, "deleteUserId": {fmt.Sprint(userID)}}
		req := as(post("/sessions/x/edit", form, params), &model.Identity{UserID: userID + 100, Name: "root", IsAdmin: true})
		f.sessions.HandleEdit(rr, req)

		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, fmt.Sprintf("/sessions/%d/edit", sessionID), rr.Header().Get("Location"))
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("malformed id field", func(t *testing.T) {
		f := newFixture(t)
		sessionID, err := f.store.CreateSession(f.ctx, "Cohort", "")
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		form := url.Values{"userDelete": {"1"}, "deleteUserId": {"abc"}}
		f.sessions.HandleEdit(rr, post("/sessions/x/edit", form, map[string]string{"id": fmt.Sprint(sessionID)}))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "session_edit", f.renderer.name)
	})
}
