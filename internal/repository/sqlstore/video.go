package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/repository"
)

var _ repository.VideoRepository = (*DB)(nil)

const videoColumns = `video_id, project_id, video_title, video_url, video_order`

// ListVideos returns the project's videos in playback order.
func (db *DB) ListVideos(ctx context.Context, projectID int64) ([]model.Video, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM Video WHERE project_id = ? ORDER BY video_order ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing videos of project %d: %w", projectID, err)
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.Title, &v.URL, &v.Order); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning video row: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating videos: %w", err)
	}
	return videos, nil
}

// GetVideo returns the video with id, or apperror.ErrNotFound.
func (db *DB) GetVideo(ctx context.Context, id int64) (*model.Video, error) {
	return getVideo(ctx, db.conn, id)
}

func getVideo(ctx context.Context, q querier, id int64) (*model.Video, error) {
	var v model.Video
	err := q.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM Video WHERE video_id = ?`, id,
	).Scan(&v.ID, &v.ProjectID, &v.Title, &v.URL, &v.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("video", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting video %d: %w", id, err)
	}
	return &v, nil
}

// AddVideo appends a video to the project and returns the order it was given:
// one past the project's current maximum, or 1 for a project with no videos.
func (db *DB) AddVideo(ctx context.Context, projectID int64, title, url string) (int, error) {
	var order int
	err := db.withTx(ctx, func(q querier) error {
		var err error
		order, err = videoOrdering.nextOrder(ctx, q, projectID)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO Video (project_id, video_title, video_url, video_order)
			 VALUES (?, ?, ?, ?)`,
			projectID, title, url, order,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("project", projectID)
			}
			return fmt.Errorf("sqlstore: inserting video: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return order, nil
}

// UpdateVideo changes the title and URL of a video.
func (db *DB) UpdateVideo(ctx context.Context, id int64, title, url string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Video SET video_title = ?, video_url = ? WHERE video_id = ?`,
		title, url, id,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating video %d: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("video", id))
}

// RemoveVideo clears every bookmark pointing at the video, then deletes it.
// The remaining videos keep their order values, so a gap may appear.
func (db *DB) RemoveVideo(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`UPDATE User_Project SET user_project_bookmark = NULL WHERE user_project_bookmark = ?`, id,
		); err != nil {
			return fmt.Errorf("sqlstore: clearing bookmarks of video %d: %w", id, err)
		}

		res, err := q.ExecContext(ctx, `DELETE FROM Video WHERE video_id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting video %d: %w", id, err)
		}
		return requireAffected(res, apperror.NotFound("video", id))
	})
}

// MoveVideo swaps the video's order with the closest lower (up) or higher
// (down) order in the same project.
//
// It reports false without writing anything when the video is already first
// (up) or last (down). A video that is not part of projectID is NotFound.
func (db *DB) MoveVideo(ctx context.Context, videoID int64, dir model.Direction, projectID int64) (bool, error) {
	var moved bool
	err := db.withTx(ctx, func(q querier) error {
		current, err := getVideo(ctx, q, videoID)
		if err != nil {
			return err
		}
		if current.ProjectID != projectID {
			return apperror.NotFound("video", videoID)
		}

		moved, err = videoOrdering.swap(ctx, q, current.ID, current.Order, dir, projectID)
		return err
	})
	return moved, err
}

// OrderBounds returns the lowest and highest video order in the project,
// both 0 when it has no videos.
func (db *DB) OrderBounds(ctx context.Context, projectID int64) (int, int, error) {
	var lo, hi int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MIN(video_order), 0), COALESCE(MAX(video_order), 0)
		 FROM Video WHERE project_id = ?`,
		projectID,
	).Scan(&lo, &hi)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlstore: reading order bounds of project %d: %w", projectID, err)
	}
	return lo, hi, nil
}
