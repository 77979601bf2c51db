package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/xid"

	"github.com/sakif/reelhub/internal/model"
)

// SessionName is the cookie name of the browser session.
const SessionName = "reelhub"

// Keys into session.Values. The identity is stored field by field.
const (
	keyUserID   = "user_id"
	keyUserName = "user_name"
	keyNickname = "nickname"
	keyIsAdmin  = "is_admin"
	keyCSRF     = "csrf_token"
)

// IdentityStore keeps the logged-in identity and the form token in the
// browser session.
type IdentityStore struct {
	store sessions.Store
}

// NewIdentityStore wraps any gorilla sessions.Store.
func NewIdentityStore(store sessions.Store) *IdentityStore {
	return &IdentityStore{store: store}
}

// NewCookieStore builds the production cookie store. secure should be true
// when the site is served over HTTPS.
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Load returns the identity stored in the request's session, or nil when the
// visitor is anonymous. A cookie that fails to decode is returned as an
// error together with a nil identity.
func (s *IdentityStore) Load(r *http.Request) (*model.Identity, error) {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		return nil, fmt.Errorf("auth: reading session: %w", err)
	}

	userID, ok := session.Values[keyUserID].(int64)
	if !ok || userID == 0 {
		return nil, nil
	}

	name, _ := session.Values[keyUserName].(string)
	nickname, _ := session.Values[keyNickname].(string)
	isAdmin, _ := session.Values[keyIsAdmin].(bool)
	return &model.Identity{
		UserID:   userID,
		Name:     name,
		Nickname: nickname,
		IsAdmin:  isAdmin,
	}, nil
}

// Save writes id into the session and rotates the form token.
func (s *IdentityStore) Save(w http.ResponseWriter, r *http.Request, id *model.Identity) error {
	session, _ := s.store.Get(r, SessionName)

	session.Values[keyUserID] = id.UserID
	session.Values[keyUserName] = id.Name
	session.Values[keyNickname] = id.Nickname
	session.Values[keyIsAdmin] = id.IsAdmin
	session.Values[keyCSRF] = xid.New().String()

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("auth: saving session: %w", err)
	}
	return nil
}

// Clear drops every value and expires the cookie.
func (s *IdentityStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)

	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("auth: clearing session: %w", err)
	}
	return nil
}

// CSRFToken returns the session's form token, creating and saving one on
// first use. Forms echo it back in the csrf_token field.
func (s *IdentityStore) CSRFToken(w http.ResponseWriter, r *http.Request) (string, error) {
	session, _ := s.store.Get(r, SessionName)

	if token, ok := session.Values[keyCSRF].(string); ok && token != "" {
		return token, nil
	}

	token := xid.New().String()
	session.Values[keyCSRF] = token
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("auth: saving form token: %w", err)
	}
	return token, nil
}

// ValidCSRF reports whether submitted matches the session's form token.
func (s *IdentityStore) ValidCSRF(r *http.Request, submitted string) bool {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		return false
	}
	token, ok := session.Values[keyCSRF].(string)
	if !ok || token == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) == 1
}
