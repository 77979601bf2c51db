package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/auth"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/repository"
)

// MaxNameLength limits user names and nicknames.
const MaxNameLength = 100

// RosterStore is the slice of the gateway session editing needs.
type RosterStore interface {
	repository.SessionRepository
	repository.UserRepository
}

// SessionService manages sessions and their member rosters.
//
// Membership permissions are looked up and shown, but Edit does not enforce
// them: any logged-in user may edit any session.
type SessionService struct {
	store     RosterStore
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewSessionService builds the session and roster service.
func NewSessionService(store RosterStore, passwords *auth.PasswordService, logger *slog.Logger) *SessionService {
	return &SessionService{store: store, passwords: passwords, logger: logger}
}

// ListForUser returns the user's sessions, least recently visited first.
func (s *SessionService) ListForUser(ctx context.Context, userID int64) ([]model.Session, error) {
	if err := validateID("userId", userID); err != nil {
		return nil, err
	}
	return s.store.ListSessionsForUser(ctx, userID)
}

// ListAll returns every session.
func (s *SessionService) ListAll(ctx context.Context) ([]model.Session, error) {
	return s.store.ListSessions(ctx)
}

// Get returns one session.
func (s *SessionService) Get(ctx context.Context, id int64) (*model.Session, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	return s.store.GetSession(ctx, id)
}

// Members returns the roster of a session.
func (s *SessionService) Members(ctx context.Context, sessionID int64) ([]model.Member, error) {
	if err := validateID("sessionId", sessionID); err != nil {
		return nil, err
	}
	return s.store.ListUsersBySession(ctx, sessionID)
}

// Create opens a session and returns its id.
func (s *SessionService) Create(ctx context.Context, title, description string) (int64, error) {
	title, description, err := cleanTitled(title, description)
	if err != nil {
		return 0, err
	}
	id, err := s.store.CreateSession(ctx, title, description)
	if err != nil {
		return 0, err
	}
	s.logger.Info("session created", slog.Int64("id", id))
	return id, nil
}

// SelectedUser returns the user shown in the edit panel, nil when the id no
// longer exists.
func (s *SessionService) SelectedUser(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, nil
	}
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// Permission returns the user's permission in the session, or "" when the
// user is not a member.
func (s *SessionService) Permission(ctx context.Context, userID, sessionID int64) (string, error) {
	membership, err := s.store.GetMembership(ctx, userID, sessionID)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return membership.Permission, nil
}

// EditRequest is one submission of the session edit form. Each flag enables
// one action; the fields after it are that action's input.
type EditRequest struct {
	SessionUpdate bool
	Title         string
	Description   string

	SessionDelete bool

	// UserSave creates a member when UserID is 0 and updates UserID
	// otherwise. Every field is replaced.
	UserSave bool
	UserID   int64
	UserName string
	Nickname string
	Password string

	UserDelete   bool
	DeleteUserID int64

	// SelectedUserID is the user to show in the edit panel afterwards.
	SelectedUserID int64
}

// EditResult reports what Edit did.
type EditResult struct {
	SessionDeleted bool
	CreatedUserID  int64
	DeletedUserID  int64
	// SelectedUser reflects the state after every action ran. A user
	// created by this request becomes the selection.
	SelectedUser *model.User
	// Errors holds the validation failures of the actions that were skipped.
	Errors []*apperror.AppError
}

// Valid reports whether every requested action passed validation.
func (r *EditResult) Valid() bool {
	return len(r.Errors) == 0
}

// Edit runs the requested actions in a fixed order: session update, session
// delete, user save, user delete, then the selected-user lookup.
//
// An action that fails validation is skipped and recorded in the result;
// the others still run. A storage failure stops the sequence and is
// returned, leaving the earlier actions applied.
func (s *SessionService) Edit(ctx context.Context, sessionID int64, req EditRequest) (*EditResult, error) {
	if err := validateID("sessionId", sessionID); err != nil {
		return nil, err
	}
	res := &EditResult{}
	selected := req.SelectedUserID

	if req.SessionUpdate {
		title, description, err := cleanTitled(req.Title, req.Description)
		if err != nil {
			res.addInvalid(err)
		} else if err := s.store.UpdateSession(ctx, sessionID, title, description); err != nil {
			return res, fmt.Errorf("updating session: %w", err)
		}
	}

	if req.SessionDelete {
		if err := s.store.DeleteSession(ctx, sessionID); err != nil {
			return res, fmt.Errorf("deleting session: %w", err)
		}
		res.SessionDeleted = true
		s.logger.Info("session deleted", slog.Int64("id", sessionID))
	}

	if req.UserSave {
		// The edited member stays selected even when the save fails.
		if req.UserID > 0 {
			selected = req.UserID
		}
		id, err := s.saveUser(ctx, sessionID, req, res.SessionDeleted)
		switch {
		case isInvalid(err):
			res.addInvalid(err)
		case err != nil:
			return res, err
		case req.UserID == 0:
			res.CreatedUserID = id
			selected = id
		}
	}

	if req.UserDelete {
		if err := validateID("deleteUserId", req.DeleteUserID); err != nil {
			res.addInvalid(err)
		} else if err := s.store.RemoveUser(ctx, req.DeleteUserID); err != nil {
			return res, fmt.Errorf("removing user: %w", err)
		} else {
			res.DeletedUserID = req.DeleteUserID
			s.logger.Info("user removed", slog.Int64("user", req.DeleteUserID), slog.Int64("session", sessionID))
		}
	}

	// Last, so it sees every change above.
	user, err := s.SelectedUser(ctx, selected)
	if err != nil {
		return res, fmt.Errorf("loading selected user: %w", err)
	}
	res.SelectedUser = user

	return res, nil
}

func (s *SessionService) saveUser(ctx context.Context, sessionID int64, req EditRequest, sessionDeleted bool) (int64, error) {
	name := strings.TrimSpace(req.UserName)
	nickname := strings.TrimSpace(req.Nickname)

	switch {
	case name == "":
		return 0, apperror.ValidationFailed("userName", "user name is required")
	case nickname == "":
		return 0, apperror.ValidationFailed("nickname", "nickname is required")
	case req.Password == "":
		return 0, apperror.ValidationFailed("password", "password is required")
	case len(name) > MaxNameLength || len(nickname) > MaxNameLength:
		return 0, apperror.ValidationFailed("userName",
			fmt.Sprintf("names must be %d characters or less", MaxNameLength))
	case req.UserID < 0:
		return 0, apperror.ValidationFailed("userId", "must not be negative")
	case req.UserID == 0 && sessionDeleted:
		return 0, apperror.ValidationFailed("userId", "cannot add a member to a deleted session")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return 0, apperror.ValidationFailed("password", err.Error())
	}

	if req.UserID == 0 {
		id, err := s.store.CreateUser(ctx, sessionID, name, nickname, hash)
		if err != nil {
			return 0, err
		}
		s.logger.Info("user created", slog.Int64("user", id), slog.Int64("session", sessionID))
		return id, nil
	}

	if err := s.store.UpdateUser(ctx, req.UserID, name, nickname, hash); err != nil {
		return 0, err
	}
	s.logger.Info("user updated", slog.Int64("user", req.UserID))
	return req.UserID, nil
}

// isInvalid reports failures the edit form should show instead of aborting
// on: bad input and a taken user name.
func isInvalid(err error) bool {
	return errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrConflict)
}

func (r *EditResult) addInvalid(err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		r.Errors = append(r.Errors, appErr)
		return
	}
	r.Errors = append(r.Errors, apperror.ValidationFailed("", err.Error()))
}
