package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/service"
)

// AuthHandler serves login and logout.
type AuthHandler struct {
	page
	auth *service.AuthService
}

// NewAuthHandler builds the login and logout handler.
func NewAuthHandler(
	authService *service.AuthService,
	renderer Renderer,
	identities *auth.IdentityStore,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		page: page{renderer: renderer, identities: identities, logger: logger},
		auth: authService,
	}
}

// HandleLoginForm shows the login form; visitors who are already logged in
// go home.
//
// HTTP: GET /login
// View "login": error, userName
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); ok {
		redirect(w, r, "/")
		return
	}
	h.render(w, r, http.StatusOK, "login", nil)
}

// HandleLogin checks the credentials. A rejected attempt re-renders the
// form with 401 and leaves the session as it was.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); ok {
		redirect(w, r, "/")
		return
	}

	name := r.PostFormValue("userName")
	identity, err := h.auth.Login(r.Context(), name, r.PostFormValue("password"))
	if errors.Is(err, apperror.ErrUnauthorized) {
		h.render(w, r, http.StatusUnauthorized, "login", map[string]any{
			"error":    err.Error(),
			"userName": name,
		})
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if err := h.identities.Save(w, r, identity); err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

// HandleLogout drops all session state and returns to the login form.
//
// HTTP: GET /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.identities.Clear(w, r); err != nil {
		h.logger.Warn("could not clear session", slog.String("error", err.Error()))
	}
	redirect(w, r, "/login")
}
