// Package service holds the domain operations between the HTTP handlers and
// the Persistence Gateway:
//
//	handler (HTTP) -> service (validation, sequencing, logging) -> repository (SQL)
//
// Services take repository interfaces, never *sqlstore.DB, so tests can run
// them against fakes or an in-memory database. They return apperror values
// and know nothing about HTTP status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/repository"
)

// Field limits enforced before anything reaches the database.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxURLLength         = 2048
)

// CatalogStore is the slice of the gateway the catalog needs.
type CatalogStore interface {
	repository.CategoryRepository
	repository.ProjectRepository
	repository.VideoRepository
}

// CatalogService manages categories, projects and their videos.
type CatalogService struct {
	store  CatalogStore
	logger *slog.Logger
}

// NewCatalogService builds the catalog service over store.
func NewCatalogService(store CatalogStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// Player is what the video player page shows for one project.
type Player struct {
	Project *model.Project
	Videos  []model.Video
	Video   *model.Video // nil when the project has no videos
}

// FirstVideo picks the project's default video from an order-sorted list:
// the one with order 1, else the first one, else nil.
func FirstVideo(videos []model.Video) *model.Video {
	for i := range videos {
		if videos[i].Order == 1 {
			return &videos[i]
		}
	}
	if len(videos) > 0 {
		return &videos[0]
	}
	return nil
}

// =========================================================================
// Categories
// =========================================================================

// Categories returns all categories in display order.
func (s *CatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

// Category returns one category.
func (s *CatalogService) Category(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	return s.store.GetCategory(ctx, id)
}

// AddCategory appends a category after the last one and returns its id.
func (s *CatalogService) AddCategory(ctx context.Context, title, description string) (int64, error) {
	title, description, err := cleanTitled(title, description)
	if err != nil {
		return 0, err
	}

	id, err := s.store.AddCategory(ctx, title, description)
	if err != nil {
		s.logger.Error("failed to add category", slog.String("title", title), slog.String("error", err.Error()))
		return 0, fmt.Errorf("adding category: %w", err)
	}

	s.logger.Info("category added", slog.Int64("id", id), slog.String("title", title))
	return id, nil
}

// UpdateCategory changes the title and description of a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, title, description string) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	title, description, err := cleanTitled(title, description)
	if err != nil {
		return err
	}
	return s.store.UpdateCategory(ctx, id, title, description)
}

// MoveCategory reports whether anything moved; the first category cannot go
// up and the last cannot go down.
func (s *CatalogService) MoveCategory(ctx context.Context, id int64, dir model.Direction) (bool, error) {
	if err := validateID("id", id); err != nil {
		return false, err
	}
	if !dir.Valid() {
		return false, apperror.ValidationFailed("direction", `direction must be "up" or "down"`)
	}
	return s.store.MoveCategory(ctx, id, dir)
}

// RemoveCategory deletes the category with all its projects.
func (s *CatalogService) RemoveCategory(ctx context.Context, id int64) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	if err := s.store.RemoveCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category removed", slog.Int64("id", id))
	return nil
}

// =========================================================================
// Projects
// =========================================================================

// Projects returns every project.
func (s *CatalogService) Projects(ctx context.Context) ([]model.Project, error) {
	return s.store.ListProjects(ctx)
}

// ProjectsByCategory returns the projects of one category.
func (s *CatalogService) ProjectsByCategory(ctx context.Context, categoryID int64) ([]model.Project, error) {
	if err := validateID("categoryId", categoryID); err != nil {
		return nil, err
	}
	return s.store.ListProjectsByCategory(ctx, categoryID)
}

// Project returns one project.
func (s *CatalogService) Project(ctx context.Context, id int64) (*model.Project, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	return s.store.GetProject(ctx, id)
}

// CreateProject adds a project to a category and returns its id.
func (s *CatalogService) CreateProject(ctx context.Context, title, description string, categoryID int64) (int64, error) {
	title, description, err := cleanTitled(title, description)
	if err != nil {
		return 0, err
	}
	if err := validateID("categoryId", categoryID); err != nil {
		return 0, err
	}

	id, err := s.store.CreateProject(ctx, title, description, categoryID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("project created", slog.Int64("id", id), slog.Int64("category", categoryID))
	return id, nil
}

// UpdateProject changes the project fields and its category.
func (s *CatalogService) UpdateProject(ctx context.Context, id int64, title, description string, categoryID int64) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	title, description, err := cleanTitled(title, description)
	if err != nil {
		return err
	}
	if err := validateID("categoryId", categoryID); err != nil {
		return err
	}
	return s.store.UpdateProject(ctx, id, title, description, categoryID)
}

// UpdateProjectImage stores a relative image path. The file itself is
// managed outside the application.
func (s *CatalogService) UpdateProjectImage(ctx context.Context, id int64, imagePath string) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return apperror.ValidationFailed("image", "image path is required")
	}
	clean := path.Clean(imagePath)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return apperror.ValidationFailed("image", "image path must be relative to the static directory")
	}
	return s.store.UpdateProjectImage(ctx, id, clean)
}

// RemoveProject deletes the project with its videos and progress rows.
func (s *CatalogService) RemoveProject(ctx context.Context, id int64) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	if err := s.store.RemoveProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project removed", slog.Int64("id", id))
	return nil
}

// =========================================================================
// Videos
// =========================================================================

// Videos returns the project's videos in order.
func (s *CatalogService) Videos(ctx context.Context, projectID int64) ([]model.Video, error) {
	if err := validateID("projectId", projectID); err != nil {
		return nil, err
	}
	return s.store.ListVideos(ctx, projectID)
}

// Player loads a project with its videos and selects the one to play.
func (s *CatalogService) Player(ctx context.Context, projectID int64) (*Player, error) {
	project, err := s.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	videos, err := s.store.ListVideos(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Player{Project: project, Videos: videos, Video: FirstVideo(videos)}, nil
}

// AddVideo appends a video and returns the order it received.
func (s *CatalogService) AddVideo(ctx context.Context, projectID int64, title, url string) (int, error) {
	if err := validateID("projectId", projectID); err != nil {
		return 0, err
	}
	title, url, err := cleanVideo(title, url)
	if err != nil {
		return 0, err
	}

	order, err := s.store.AddVideo(ctx, projectID, title, url)
	if err != nil {
		return 0, err
	}

	s.logger.Info("video added", slog.Int64("project", projectID), slog.Int("order", order))
	return order, nil
}

// UpdateVideo changes the title and URL of a video of projectID.
func (s *CatalogService) UpdateVideo(ctx context.Context, projectID, id int64, title, url string) error {
	if err := s.videoOf(ctx, projectID, id); err != nil {
		return err
	}
	title, url, err := cleanVideo(title, url)
	if err != nil {
		return err
	}
	return s.store.UpdateVideo(ctx, id, title, url)
}

// RemoveVideo deletes a video of projectID.
func (s *CatalogService) RemoveVideo(ctx context.Context, projectID, id int64) error {
	if err := s.videoOf(ctx, projectID, id); err != nil {
		return err
	}
	if err := s.store.RemoveVideo(ctx, id); err != nil {
		return err
	}
	s.logger.Info("video removed", slog.Int64("project", projectID), slog.Int64("video", id))
	return nil
}

// videoOf reports NotFound unless video id belongs to projectID.
func (s *CatalogService) videoOf(ctx context.Context, projectID, id int64) error {
	if err := validateID("videoId", id); err != nil {
		return err
	}
	if err := validateID("projectId", projectID); err != nil {
		return err
	}
	video, err := s.store.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if video.ProjectID != projectID {
		return apperror.NotFound("video", id)
	}
	return nil
}

// MoveVideo swaps the video with its neighbor inside projectID.
//
// Two concurrent moves on the same project are serialized by the gateway's
// transaction, not by anything here.
func (s *CatalogService) MoveVideo(ctx context.Context, videoID int64, dir model.Direction, projectID int64) (bool, error) {
	if err := validateID("videoId", videoID); err != nil {
		return false, err
	}
	if err := validateID("projectId", projectID); err != nil {
		return false, err
	}
	if !dir.Valid() {
		return false, apperror.ValidationFailed("direction", `direction must be "up" or "down"`)
	}
	return s.store.MoveVideo(ctx, videoID, dir, projectID)
}

// OrderBounds returns the lowest and highest video order of the project.
func (s *CatalogService) OrderBounds(ctx context.Context, projectID int64) (int, int, error) {
	if err := validateID("projectId", projectID); err != nil {
		return 0, 0, err
	}
	return s.store.OrderBounds(ctx, projectID)
}

// =========================================================================
// Validation helpers
// =========================================================================

func validateID(field string, id int64) error {
	if id <= 0 {
		return apperror.ValidationFailed(field, "must be a positive id")
	}
	return nil
}

func cleanTitled(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if title == "" {
		return "", "", apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(description) > MaxDescriptionLength {
		return "", "", apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return title, description, nil
}

func cleanVideo(title, url string) (string, string, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)

	if title == "" {
		return "", "", apperror.ValidationFailed("title", "video title is required")
	}
	if len(title) > MaxTitleLength {
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if url == "" {
		return "", "", apperror.ValidationFailed("url", "video url is required")
	}
	if len(url) > MaxURLLength {
		return "", "", apperror.ValidationFailed("url",
			fmt.Sprintf("url must be %d characters or less", MaxURLLength))
	}
	return title, url, nil
}
