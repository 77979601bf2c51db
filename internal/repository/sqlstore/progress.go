package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/repository"
)

var _ repository.ProgressRepository = (*DB)(nil)

// GetCompletion returns when the user completed the project: nil when the
// progress row exists but is not completed, apperror.ErrNotFound when there
// is no progress row at all. With duplicate rows the latest completion wins.
func (db *DB) GetCompletion(ctx context.Context, userID, projectID int64) (*time.Time, error) {
	var completed sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_project_date_complete FROM User_Project
		 WHERE user_id = ? AND project_id = ?
		 ORDER BY user_project_date_complete DESC LIMIT 1`,
		userID, projectID,
	).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("progress", fmt.Sprintf("%d/%d", userID, projectID))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting completion of project %d for user %d: %w", projectID, userID, err)
	}
	if !completed.Valid {
		return nil, nil
	}
	t := completed.Time
	return &t, nil
}

// GiveProject marks the project completed for the user.
//
// It updates any existing rows and then always inserts a new completed row,
// so every call after the first adds a duplicate. Readers tolerate that by
// taking the latest completion.
func (db *DB) GiveProject(ctx context.Context, userID, projectID int64) error {
	now := time.Now().UTC()
	return db.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`UPDATE User_Project SET user_project_date_complete = ?
			 WHERE user_id = ? AND project_id = ?`,
			now, userID, projectID,
		); err != nil {
			return fmt.Errorf("sqlstore: completing project %d for user %d: %w", projectID, userID, err)
		}

		_, err := q.ExecContext(ctx,
			`INSERT INTO User_Project (user_id, project_id, user_project_bookmark, user_project_date_complete)
			 VALUES (?, ?, NULL, ?)`,
			userID, projectID, now,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.ValidationFailed("projectId", "unknown user or project")
			}
			return fmt.Errorf("sqlstore: inserting progress of project %d for user %d: %w", projectID, userID, err)
		}
		return nil
	})
}

// RemoveUserProject clears the completion date, keeping the progress rows.
func (db *DB) RemoveUserProject(ctx context.Context, userID, projectID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE User_Project SET user_project_date_complete = NULL
		 WHERE user_id = ? AND project_id = ?`,
		userID, projectID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: revoking project %d for user %d: %w", projectID, userID, err)
	}
	return requireAffected(res, apperror.NotFound("progress", fmt.Sprintf("%d/%d", userID, projectID)))
}

// SetBookmark records the video the user should resume at. The video must
// belong to the project. A progress row is created when none exists.
func (db *DB) SetBookmark(ctx context.Context, userID, projectID, videoID int64) error {
	return db.withTx(ctx, func(q querier) error {
		var one int
		err := q.QueryRowContext(ctx,
			`SELECT 1 FROM Video WHERE video_id = ? AND project_id = ?`, videoID, projectID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("video", videoID)
		}
		if err != nil {
			return fmt.Errorf("sqlstore: checking video %d: %w", videoID, err)
		}

		res, err := q.ExecContext(ctx,
			`UPDATE User_Project SET user_project_bookmark = ?
			 WHERE user_id = ? AND project_id = ?`,
			videoID, userID, projectID,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: setting bookmark: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("sqlstore: checking rows affected: %w", err)
		} else if n > 0 {
			return nil
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO User_Project (user_id, project_id, user_project_bookmark, user_project_date_complete)
			 VALUES (?, ?, ?, NULL)`,
			userID, projectID, videoID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("user", userID)
			}
			return fmt.Errorf("sqlstore: inserting bookmark: %w", err)
		}
		return nil
	})
}

// Bookmark returns the video id the user bookmarked in the project, nil when
// there is none.
func (db *DB) Bookmark(ctx context.Context, userID, projectID int64) (*int64, error) {
	var bookmark sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_project_bookmark FROM User_Project
		 WHERE user_id = ? AND project_id = ? AND user_project_bookmark IS NOT NULL
		 LIMIT 1`,
		userID, projectID,
	).Scan(&bookmark)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting bookmark: %w", err)
	}
	id := bookmark.Int64
	return &id, nil
}
