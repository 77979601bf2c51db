package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/auth"
)

// page carries what every HTML handler needs to answer a request.
type page struct {
	renderer   Renderer
	identities *auth.IdentityStore
	logger     *slog.Logger
}

// render fills in the keys every template may use (identity, csrfToken)
// and hands data to the renderer.
func (p *page) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		data["identity"] = id
	}

	// Must run before the renderer writes the status line: it may set the
	// session cookie.
	token, err := p.identities.CSRFToken(w, r)
	if err != nil {
		p.logger.Warn("could not issue form token", slog.String("error", err.Error()))
	}
	data["csrfToken"] = token

	if err := p.renderer.Render(w, status, name, data); err != nil {
		p.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// errorStatus maps a domain error kind to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// renderError shows the error page. Messages of typed domain errors are
// shown as-is; anything else is logged and replaced by a generic message
// so SQL or file paths never reach the browser.
func (p *page) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	message := "An internal error occurred"

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && status != http.StatusInternalServerError {
		message = appErr.Message
	} else {
		p.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	p.render(w, r, status, "error", map[string]any{
		"status":  status,
		"message": message,
	})
}

// Forbidden answers with the 403 page. It is used by the admin and form
// token middleware.
func (p *page) Forbidden(w http.ResponseWriter, r *http.Request) {
	p.renderError(w, r, apperror.Forbidden("you are not allowed to do that"))
}

// NotFound answers with the 404 page for unknown routes.
func (p *page) NotFound(w http.ResponseWriter, r *http.Request) {
	p.renderError(w, r, &apperror.AppError{Err: apperror.ErrNotFound, Message: "page not found"})
}

// formErrors turns a validation or conflict failure into the list a form
// template shows next to its fields.
func formErrors(err error) []*apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return []*apperror.AppError{appErr}
	}
	return []*apperror.AppError{apperror.ValidationFailed("", err.Error())}
}

// isFormError reports failures that re-render the form instead of showing
// the error page.
func isFormError(err error) bool {
	return errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrConflict)
}

// redirect answers a successful POST with 303 so reloading the target does
// not resubmit the form.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(name, chi.URLParam(r, name))
	}
	return id, nil
}

// formID parses an optional integer form field; empty means 0.
func formID(r *http.Request, field string) (int64, error) {
	raw := r.PostFormValue(field)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, apperror.ValidationFailed(field, fmt.Sprintf("%q is not a valid id", raw))
	}
	return id, nil
}

// queryID parses an optional integer query parameter; anything unusable
// means 0.
func queryID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// flag reports whether a checkbox or submit button named field was sent.
func flag(r *http.Request, field string) bool {
	return r.PostFormValue(field) != ""
}
