package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/reelhub/internal/model"
)

// contextKey is private so no other package can read or shadow the identity.
type contextKey string

const identityKey contextKey = "identity"

// CSRFField is the form field carrying the session's form token.
const CSRFField = "csrf_token"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity put there by LoadIdentity, or
// (nil, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*model.Identity)
	return id, ok && id != nil
}

// LoadIdentity reads the identity from the session on every request. It
// never blocks: an undecodable cookie is logged and treated as anonymous.
func LoadIdentity(store *IdentityStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := store.Load(r)
			if err != nil {
				logger.Debug("ignoring unreadable session", "error", err)
			}
			if id != nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous visitors to the login form.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets only admin identities through. Anonymous visitors are
// sent to the login form; logged-in non-admins get forbidden.
func RequireAdmin(forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !id.IsAdmin {
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// VerifyCSRF rejects state-changing requests whose csrf_token field does not
// match the session's token.
func VerifyCSRF(store *IdentityStore, forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if !store.ValidCSRF(r, r.PostFormValue(CSRFField)) {
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
