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

// AdminHandler serves the catalog administration pages. Every route sits
// behind auth.RequireAdmin.
type AdminHandler struct {
	page
	catalog  *service.CatalogService
	sessions *service.SessionService
}

// NewAdminHandler builds the admin handler for categories, projects and sessions.
func NewAdminHandler(
	catalog *service.CatalogService,
	sessions *service.SessionService,
	renderer Renderer,
	identities *auth.IdentityStore,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		page:     page{renderer: renderer, identities: identities, logger: logger},
		catalog:  catalog,
		sessions: sessions,
	}
}

// =========================================================================
// Categories
// =========================================================================

// HandleCategories lists the categories in display order.
//
// HTTP: GET /admin/categories
// View "admin_categories": categories, errors
func (h *AdminHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.renderCategories(w, r, http.StatusOK, nil)
}

// HandleAddCategory appends a category after the last one.
//
// HTTP: POST /admin/categories
func (h *AdminHandler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	_, err := h.catalog.AddCategory(r.Context(), r.PostFormValue("title"), r.PostFormValue("description"))
	if isFormError(err) {
		h.renderCategories(w, r, http.StatusUnprocessableEntity, formErrors(err))
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, "/admin/categories")
}

func (h *AdminHandler) renderCategories(w http.ResponseWriter, r *http.Request, status int, errs []*apperror.AppError) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, status, "admin_categories", map[string]any{
		"categories": categories,
		"errors":     errs,
	})
}

// HandleCategory shows one category with its projects.
//
// HTTP: GET /admin/categories/{id}
// View "admin_category": category, projects, errors
func (h *AdminHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderCategory(w, r, http.StatusOK, id, nil)
}

// HandleCategoryAction runs the form's action: update, move or delete.
//
// HTTP: POST /admin/categories/{id}
func (h *AdminHandler) HandleCategoryAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	target := fmt.Sprintf("/admin/categories/%d", id)
	switch action := r.PostFormValue("action"); action {
	case "update":
		err = h.catalog.UpdateCategory(r.Context(), id, r.PostFormValue("title"), r.PostFormValue("description"))
	case "move":
		_, err = h.catalog.MoveCategory(r.Context(), id, model.Direction(r.PostFormValue("direction")))
		target = "/admin/categories"
	case "delete":
		err = h.catalog.RemoveCategory(r.Context(), id)
		target = "/admin/categories"
	default:
		err = apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", action))
	}

	if isFormError(err) {
		h.renderCategory(w, r, http.StatusUnprocessableEntity, id, formErrors(err))
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, target)
}

func (h *AdminHandler) renderCategory(w http.ResponseWriter, r *http.Request, status int, id int64, errs []*apperror.AppError) {
	category, err := h.catalog.Category(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	projects, err := h.catalog.ProjectsByCategory(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, status, "admin_category", map[string]any{
		"category": category,
		"projects": projects,
		"errors":   errs,
	})
}

// =========================================================================
// Projects
// =========================================================================

// HandleCreateProject creates a project in the posted category. Validation
// failures show the category page the form lives on.
//
// HTTP: POST /admin/projects
func (h *AdminHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	categoryID, err := formID(r, "categoryId")
	if err != nil {
		h.renderCategories(w, r, http.StatusUnprocessableEntity, formErrors(err))
		return
	}

	id, err := h.catalog.CreateProject(r.Context(), r.PostFormValue("title"), r.PostFormValue("description"), categoryID)
	if isFormError(err) {
		if categoryID > 0 {
			h.renderCategory(w, r, http.StatusUnprocessableEntity, categoryID, formErrors(err))
		} else {
			h.renderCategories(w, r, http.StatusUnprocessableEntity, formErrors(err))
		}
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/admin/projects/%d", id))
}

// HandleProject shows the project editor with its videos.
//
// HTTP: GET /admin/projects/{id}
// View "admin_project": project, categories, videos, minOrder, maxOrder, errors
func (h *AdminHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderProject(w, r, http.StatusOK, id, nil)
}

// HandleProjectAction runs one project or video action. The video actions
// read videoId from the form; moves stay inside this project.
//
// HTTP: POST /admin/projects/{id}
func (h *AdminHandler) HandleProjectAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	target := fmt.Sprintf("/admin/projects/%d", id)
	err = h.projectAction(r, id)
	if err == nil && r.PostFormValue("action") == "delete" {
		target = "/admin/categories"
	}

	if isFormError(err) {
		h.renderProject(w, r, http.StatusUnprocessableEntity, id, formErrors(err))
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, target)
}

func (h *AdminHandler) projectAction(r *http.Request, id int64) error {
	ctx := r.Context()
	title := r.PostFormValue("title")

	switch action := r.PostFormValue("action"); action {
	case "update":
		categoryID, err := formID(r, "categoryId")
		if err != nil {
			return err
		}
		return h.catalog.UpdateProject(ctx, id, title, r.PostFormValue("description"), categoryID)
	case "image":
		return h.catalog.UpdateProjectImage(ctx, id, r.PostFormValue("image"))
	case "delete":
		return h.catalog.RemoveProject(ctx, id)
	case "addVideo":
		_, err := h.catalog.AddVideo(ctx, id, title, r.PostFormValue("url"))
		return err
	case "updateVideo", "removeVideo", "moveVideo":
		videoID, err := formID(r, "videoId")
		if err != nil {
			return err
		}
		switch action {
		case "updateVideo":
			return h.catalog.UpdateVideo(ctx, id, videoID, title, r.PostFormValue("url"))
		case "removeVideo":
			return h.catalog.RemoveVideo(ctx, id, videoID)
		default:
			_, err := h.catalog.MoveVideo(ctx, videoID, model.Direction(r.PostFormValue("direction")), id)
			return err
		}
	default:
		return apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", action))
	}
}

func (h *AdminHandler) renderProject(w http.ResponseWriter, r *http.Request, status int, id int64, errs []*apperror.AppError) {
	project, err := h.catalog.Project(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	videos, err := h.catalog.Videos(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	minOrder, maxOrder, err := h.catalog.OrderBounds(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, status, "admin_project", map[string]any{
		"project":    project,
		"categories": categories,
		"videos":     videos,
		"minOrder":   minOrder,
		"maxOrder":   maxOrder,
		"errors":     errs,
	})
}

// =========================================================================
// Sessions
// =========================================================================

// HandleCreateSession opens a new session and continues in its editor.
//
// HTTP: POST /admin/sessions
func (h *AdminHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.Create(r.Context(), r.PostFormValue("title"), r.PostFormValue("description"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	redirect(w, r, fmt.Sprintf("/sessions/%d/edit", id))
}
