package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/service"
)

// CatalogHandler serves the public catalog pages.
type CatalogHandler struct {
	page
	catalog  *service.CatalogService
	progress *service.ProgressService
}

// NewCatalogHandler builds the public catalog and player handler.
func NewCatalogHandler(
	catalog *service.CatalogService,
	progress *service.ProgressService,
	renderer Renderer,
	identities *auth.IdentityStore,
	logger *slog.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		page:     page{renderer: renderer, identities: identities, logger: logger},
		catalog:  catalog,
		progress: progress,
	}
}

// HandleHome lists every project.
//
// HTTP: GET /
// View "home": projects, categories, identity
func (h *CatalogHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	projects, err := h.catalog.Projects(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "home", map[string]any{
		"projects":   projects,
		"categories": categories,
	})
}

// HandlePlayer shows a project's videos with the default one selected.
// Logged-in visitors also get their completion and bookmark.
//
// HTTP: GET /player/{project}
// View "player": project_id, project, videos, video, completed, bookmark
func (h *CatalogHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "project")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	player, err := h.catalog.Player(r.Context(), projectID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := map[string]any{
		"project_id": projectID,
		"project":    player.Project,
		"videos":     player.Videos,
		"video":      player.Video,
	}

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		progress, err := h.progress.Progress(r.Context(), id.UserID, projectID)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		data["completed"] = progress.CompletedAt
		data["bookmark"] = progress.Bookmark
	}

	h.render(w, r, http.StatusOK, "player", data)
}
