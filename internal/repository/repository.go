// Package repository declares the Persistence Gateway contracts.
//
// Conventions shared by every method:
//   - list methods return an empty (non-nil) slice when nothing matches
//   - single-row methods return an error wrapping apperror.ErrNotFound
//     when nothing matches, never a nil row with a nil error
//   - write failures always propagate as errors
package repository

import (
	"context"
	"time"

	"github.com/sakif/reelhub/internal/model"
)

// CategoryRepository stores categories and their order.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	AddCategory(ctx context.Context, title, description string) (int64, error)
	UpdateCategory(ctx context.Context, id int64, title, description string) error
	MoveCategory(ctx context.Context, id int64, dir model.Direction) (bool, error)
	RemoveCategory(ctx context.Context, id int64) error
}

// ProjectRepository stores projects.
type ProjectRepository interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListProjectsByCategory(ctx context.Context, categoryID int64) ([]model.Project, error)
	GetProject(ctx context.Context, id int64) (*model.Project, error)
	CreateProject(ctx context.Context, title, description string, categoryID int64) (int64, error)
	UpdateProject(ctx context.Context, id int64, title, description string, categoryID int64) error
	UpdateProjectImage(ctx context.Context, id int64, path string) error
	RemoveProject(ctx context.Context, id int64) error
}

// VideoRepository stores the ordered videos of a project.
type VideoRepository interface {
	ListVideos(ctx context.Context, projectID int64) ([]model.Video, error)
	GetVideo(ctx context.Context, id int64) (*model.Video, error)
	AddVideo(ctx context.Context, projectID int64, title, url string) (int, error)
	UpdateVideo(ctx context.Context, id int64, title, url string) error
	RemoveVideo(ctx context.Context, id int64) error
	MoveVideo(ctx context.Context, videoID int64, dir model.Direction, projectID int64) (bool, error)
	OrderBounds(ctx context.Context, projectID int64) (min, max int, err error)
}

// UserRepository stores accounts and roster memberships.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	ListUsersBySession(ctx context.Context, sessionID int64) ([]model.Member, error)
	CreateUser(ctx context.Context, sessionID int64, name, nickname, passwordHash string) (int64, error)
	CreateAdmin(ctx context.Context, name, nickname, passwordHash string) (int64, error)
	UpdateUser(ctx context.Context, id int64, name, nickname, passwordHash string) error
	RemoveUser(ctx context.Context, id int64) error
	UserCount(ctx context.Context) (int, error)
}

// SessionRepository stores sessions and membership lookups.
type SessionRepository interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
	ListSessionsForUser(ctx context.Context, userID int64) ([]model.Session, error)
	GetSession(ctx context.Context, id int64) (*model.Session, error)
	CreateSession(ctx context.Context, title, description string) (int64, error)
	UpdateSession(ctx context.Context, id int64, title, description string) error
	DeleteSession(ctx context.Context, id int64) error
	GetMembership(ctx context.Context, userID, sessionID int64) (*model.Membership, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// ProgressRepository stores completion and bookmarks per user and project.
type ProgressRepository interface {
	GetCompletion(ctx context.Context, userID, projectID int64) (*time.Time, error)
	GiveProject(ctx context.Context, userID, projectID int64) error
	RemoveUserProject(ctx context.Context, userID, projectID int64) error
	SetBookmark(ctx context.Context, userID, projectID, videoID int64) error
	Bookmark(ctx context.Context, userID, projectID int64) (*int64, error)
}

// Store is everything the sqlstore gateway provides. The server wires one
// Store into all services; each service only sees the slice it needs.
type Store interface {
	CategoryRepository
	ProjectRepository
	VideoRepository
	UserRepository
	SessionRepository
	ProgressRepository
}
