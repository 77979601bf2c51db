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
)

// AuthStore is what login and admin seeding need from the gateway.
type AuthStore interface {
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	CreateAdmin(ctx context.Context, name, nickname, passwordHash string) (int64, error)
	UserCount(ctx context.Context) (int, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// AuthService checks credentials. Keeping the identity in the browser
// session is the handler's job.
type AuthService struct {
	store     AuthStore
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService builds the login service.
func NewAuthService(store AuthStore, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{store: store, passwords: passwords, logger: logger}
}

// Login returns the identity for a matching name and password.
//
// An unknown name and a wrong password both yield apperror.ErrUnauthorized,
// so the caller cannot tell which one failed. On success the last-login
// time of every membership is refreshed.
func (s *AuthService) Login(ctx context.Context, name, password string) (*model.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, apperror.Unauthorized()
	}

	user, err := s.store.GetUserByName(ctx, name)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Info("login rejected", slog.String("user", name), slog.String("reason", "unknown user"))
		return nil, apperror.Unauthorized()
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unreadable",
				slog.Int64("user", user.ID), slog.String("error", err.Error()))
		}
		s.logger.Info("login rejected", slog.String("user", name), slog.String("reason", "bad password"))
		return nil, apperror.Unauthorized()
	}

	// A failed timestamp update must not block the login.
	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("could not record last login",
			slog.Int64("user", user.ID), slog.String("error", err.Error()))
	}

	s.logger.Info("user logged in", slog.Int64("user", user.ID))
	return model.IdentityOf(user), nil
}

// SeedAdmin creates the first admin account when the database has no users
// at all. It reports whether an account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, name, password string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return false, nil
	}

	n, err := s.store.UserCount(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return false, apperror.ValidationFailed("password", err.Error())
	}
	id, err := s.store.CreateAdmin(ctx, name, name, hash)
	if err != nil {
		return false, fmt.Errorf("creating admin: %w", err)
	}

	s.logger.Info("admin account seeded", slog.Int64("user", id), slog.String("name", name))
	return true, nil
}
