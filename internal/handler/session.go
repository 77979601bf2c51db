package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/service"
)

// SessionHandler serves the session list and the roster editor.
type SessionHandler struct {
	page
	sessions *service.SessionService
}

// NewSessionHandler builds the session list and roster editor handler.
func NewSessionHandler(
	sessions *service.SessionService,
	renderer Renderer,
	identities *auth.IdentityStore,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		page:     page{renderer: renderer, identities: identities, logger: logger},
		sessions: sessions,
	}
}

// HandleList shows the sessions of the logged-in user. Admins see all.
//
// HTTP: GET /sessions
// View "sessions": sessions
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		redirect(w, r, "/login")
		return
	}

	var (
		sessions []model.Session
		err      error
	)
	if id.IsAdmin {
		sessions, err = h.sessions.ListAll(r.Context())
	} else {
		sessions, err = h.sessions.ListForUser(r.Context(), id.UserID)
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "sessions", map[string]any{"sessions": sessions})
}

// HandleEditForm shows the session with its roster. ?user=ID selects the
// member shown in the user panel.
//
// HTTP: GET /sessions/{id}/edit
// View "session_edit": session, users, selectedUser, permission, errors
func (h *SessionHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	selected, err := h.sessions.SelectedUser(r.Context(), queryID(r, "user"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderEdit(w, r, http.StatusOK, sessionID, selected, nil)
}

// HandleEdit runs the submitted actions in their fixed order (session
// update, session delete, user save, user delete) and then redisplays.
// Callers who delete their own account are logged out.
//
// HTTP: POST /sessions/{id}/edit
func (h *SessionHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	req, err := editRequestFromForm(r)
	if err != nil {
		h.renderEdit(w, r, http.StatusUnprocessableEntity, sessionID, nil, formErrors(err))
		return
	}

	res, err := h.sessions.Edit(r.Context(), sessionID, req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if id, ok := auth.IdentityFromContext(r.Context()); ok && res.DeletedUserID != 0 && res.DeletedUserID == id.UserID {
		if err := h.identities.Clear(w, r); err != nil {
			h.logger.Warn("could not clear session", slog.String("error", err.Error()))
		}
		redirect(w, r, "/login")
		return
	}
	if res.SessionDeleted {
		redirect(w, r, "/sessions")
		return
	}
	if !res.Valid() {
		h.renderEdit(w, r, http.StatusUnprocessableEntity, sessionID, res.SelectedUser, res.Errors)
		return
	}

	target := fmt.Sprintf("/sessions/%d/edit", sessionID)
	if res.SelectedUser != nil {
		target = fmt.Sprintf("%s?user=%d", target, res.SelectedUser.ID)
	}
	redirect(w, r, target)
}

// renderEdit loads the session view context. The permission is shown to the
// page only; nothing here enforces it.
func (h *SessionHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, sessionID int64, selected *model.User, errs []*apperror.AppError) {
	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	users, err := h.sessions.Members(r.Context(), sessionID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	permission := ""
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		permission, err = h.sessions.Permission(r.Context(), id.UserID, sessionID)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
	}

	h.render(w, r, status, "session_edit", map[string]any{
		"session":      session,
		"users":        users,
		"selectedUser": selected,
		"permission":   permission,
		"errors":       errs,
	})
}

func editRequestFromForm(r *http.Request) (service.EditRequest, error) {
	if err := r.ParseForm(); err != nil {
		return service.EditRequest{}, apperror.ValidationFailed("", "malformed form")
	}

	userID, err := formID(r, "userId")
	if err != nil {
		return service.EditRequest{}, err
	}
	deleteUserID, err := formID(r, "deleteUserId")
	if err != nil {
		return service.EditRequest{}, err
	}
	selectedUserID, err := formID(r, "selectedUserId")
	if err != nil {
		return service.EditRequest{}, err
	}

	return service.EditRequest{
		SessionUpdate:  flag(r, "sessionUpdate"),
		Title:          r.PostFormValue("title"),
		Description:    r.PostFormValue("description"),
		SessionDelete:  flag(r, "sessionDelete"),
		UserSave:       flag(r, "userSave"),
		UserID:         userID,
		UserName:       r.PostFormValue("userName"),
		Nickname:       r.PostFormValue("nickname"),
		Password:       r.PostFormValue("password"),
		UserDelete:     flag(r, "userDelete"),
		DeleteUserID:   deleteUserID,
		SelectedUserID: selectedUserID,
	}, nil
}
