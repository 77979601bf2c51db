package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/service"
)

// ProgressHandler records completions and bookmarks for the logged-in user.
type ProgressHandler struct {
	page
	progress *service.ProgressService
}

// NewProgressHandler builds the completion and bookmark handler.
func NewProgressHandler(
	progress *service.ProgressService,
	renderer Renderer,
	identities *auth.IdentityStore,
	logger *slog.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		page:     page{renderer: renderer, identities: identities, logger: logger},
		progress: progress,
	}
}

// HandleProgress runs action give, revoke or bookmark (with videoId) and
// returns to the player.
//
// HTTP: POST /progress/{project}
func (h *ProgressHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		redirect(w, r, "/login")
		return
	}
	projectID, err := pathID(r, "project")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	switch action := r.PostFormValue("action"); action {
	case "give":
		err = h.progress.Give(r.Context(), id.UserID, projectID)
	case "revoke":
		err = h.progress.Revoke(r.Context(), id.UserID, projectID)
	case "bookmark":
		var videoID int64
		if videoID, err = formID(r, "videoId"); err == nil {
			err = h.progress.SetBookmark(r.Context(), id.UserID, projectID, videoID)
		}
	default:
		err = apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", action))
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	redirect(w, r, fmt.Sprintf("/player/%d", projectID))
}
