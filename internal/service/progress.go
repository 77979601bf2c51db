package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/repository"
)

// ProgressService tracks per-user completion and resume position.
type ProgressService struct {
	store  repository.ProgressRepository
	logger *slog.Logger
}

// NewProgressService builds the progress service over store.
func NewProgressService(store repository.ProgressRepository, logger *slog.Logger) *ProgressService {
	return &ProgressService{store: store, logger: logger}
}

// Completion returns when the user completed the project, nil when they have
// not (including when they never started it).
func (s *ProgressService) Completion(ctx context.Context, userID, projectID int64) (*time.Time, error) {
	completed, err := s.store.GetCompletion(ctx, userID, projectID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return completed, err
}

// Progress returns the user's completion and bookmark for the project. Both
// fields are nil for a project the user never started.
func (s *ProgressService) Progress(ctx context.Context, userID, projectID int64) (*model.Progress, error) {
	completed, err := s.Completion(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	bookmark, err := s.Bookmark(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return &model.Progress{
		UserID:      userID,
		ProjectID:   projectID,
		Bookmark:    bookmark,
		CompletedAt: completed,
	}, nil
}

// Give marks the project completed. Repeated calls add progress rows.
func (s *ProgressService) Give(ctx context.Context, userID, projectID int64) error {
	if err := validateID("projectId", projectID); err != nil {
		return err
	}
	if err := s.store.GiveProject(ctx, userID, projectID); err != nil {
		return err
	}
	s.logger.Info("project completed", slog.Int64("user", userID), slog.Int64("project", projectID))
	return nil
}

// Revoke clears the completion. Revoking a project the user never started
// is NotFound.
func (s *ProgressService) Revoke(ctx context.Context, userID, projectID int64) error {
	if err := validateID("projectId", projectID); err != nil {
		return err
	}
	return s.store.RemoveUserProject(ctx, userID, projectID)
}

// SetBookmark remembers the video to resume at.
func (s *ProgressService) SetBookmark(ctx context.Context, userID, projectID, videoID int64) error {
	if err := validateID("projectId", projectID); err != nil {
		return err
	}
	if err := validateID("videoId", videoID); err != nil {
		return err
	}
	return s.store.SetBookmark(ctx, userID, projectID, videoID)
}

// Bookmark returns the bookmarked video id, nil when there is none.
func (s *ProgressService) Bookmark(ctx context.Context, userID, projectID int64) (*int64, error) {
	return s.store.Bookmark(ctx, userID, projectID)
}
