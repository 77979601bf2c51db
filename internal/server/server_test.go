package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/reelhub/internal/config"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T) *browser {
	t.Helper()

	cfg := &config.Config{
		DBDriver:      "sqlite",
		DBDSN:         ":memory:",
		SessionKey:    []byte(strings.Repeat("s", config.MinSessionKeyLength)),
		AdminName:     "root",
		AdminPassword: "rootpw",
	}
	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &browser{
		t:    t,
		base: ts.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return b.read(resp)
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return b.read(resp)
}

func (b *browser) read(resp *http.Response) (int, string, string) {
	b.t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

// token loads path and returns the form token embedded in the page.
func (b *browser) token(path string) string {
	b.t.Helper()
	status, _, body := b.get(path)
	require.Equal(b.t, http.StatusOK, status, body)
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(b.t, m, 2, "no form token on %s", path)
	return m[1]
}

func TestServer_AdminWorkflow(t *testing.T) {
	b := newBrowser(t)

	status, _, body := b.get("/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No projects yet.")

	status, location, _ := b.get("/admin/categories")
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", location)

	token := b.token("/login")

	status, _, _ = b.post("/login", url.Values{"userName": {"root"}, "password": {"rootpw"}})
	assert.Equal(t, http.StatusForbidden, status, "login without a form token")

	status, _, body = b.post("/login", url.Values{"csrf_token": {token}, "userName": {"root"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, `value="root"`)

	status, location, _ = b.post("/login", url.Values{"csrf_token": {token}, "userName": {"root"}, "password": {"rootpw"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/", location)

	token = b.token("/admin/categories")

	status, _, _ = b.post("/admin/categories", url.Values{"csrf_token": {token}, "title": {"Basics"}})
	require.Equal(t, http.StatusSeeOther, status)

	status, _, body = b.post("/admin/categories", url.Values{"csrf_token": {token}, "title": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "title is required")

	status, _, body = b.get("/admin/categories/1")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Basics")

	status, location, _ = b.post("/admin/projects", url.Values{"csrf_token": {token}, "title": {"Intro"}, "categoryId": {"1"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/admin/projects/1", location)

	status, _, _ = b.post("/admin/projects/1", url.Values{
		"csrf_token": {token},
		"action":     {"addVideo"},
		"title":      {"Welcome"},
		"url":        {"https://videos.example/welcome.mp4"},
	})
	require.Equal(t, http.StatusSeeOther, status)

	status, _, body = b.get("/admin/projects/1")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Welcome")

	status, _, body = b.get("/player/1")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<video")
	assert.Contains(t, body, "https://videos.example/welcome.mp4")
	assert.Contains(t, body, "Mark as completed")

	status, _, _ = b.post("/progress/1", url.Values{"csrf_token": {token}, "action": {"give"}})
	require.Equal(t, http.StatusSeeOther, status)

	_, _, body = b.get("/player/1")
	assert.Contains(t, body, "Mark as not completed")

	_, _, body = b.get("/")
	assert.Contains(t, body, `href="/player/1"`)
	assert.Contains(t, body, "/static/images/default.png")
}

func TestServer_SessionWorkflow(t *testing.T) {
	b := newBrowser(t)
	token := b.token("/login")
	status, _, _ := b.post("/login", url.Values{"csrf_token": {token}, "userName": {"root"}, "password": {"rootpw"}})
	require.Equal(t, http.StatusSeeOther, status)

	token = b.token("/sessions")

	status, location, _ := b.post("/admin/sessions", url.Values{"csrf_token": {token}, "title": {"Autumn"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/sessions/1/edit", location)

	status, location, _ = b.post("/sessions/1/edit", url.Values{
		"csrf_token": {token},
		"userSave":   {"1"},
		"userName":   {"ann"},
		"nickname":   {"Annie"},
		"password":   {"pw"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Regexp(t, `^/sessions/1/edit\?user=\d+$`, location)

	status, _, body := b.get(location)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Edit Annie")
	assert.Contains(t, body, "Remove Annie")

	status, _, body = b.post("/sessions/1/edit", url.Values{"csrf_token": {token}, "sessionUpdate": {"1"}, "title": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "title is required")

	status, location, _ = b.post("/sessions/1/edit", url.Values{"csrf_token": {token}, "sessionDelete": {"1"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/sessions", location)

	status, _, _ = b.get("/sessions/1/edit")
	assert.Equal(t, http.StatusNotFound, status)

	status, location, _ = b.get("/logout")
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", location)

	status, location, _ = b.get("/sessions")
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/login", location)
}

func TestServer_NotFoundAndStatic(t *testing.T) {
	b := newBrowser(t)

	status, _, body := b.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "page not found")

	status, _, _ = b.get("/player/999")
	assert.Equal(t, http.StatusNotFound, status)

	status, _, body = b.get("/static/css/style.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, ".topbar")
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(&config.Config{DBDriver: "oracle", DBDSN: "x"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
