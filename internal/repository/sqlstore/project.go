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

var _ repository.ProjectRepository = (*DB)(nil)

const projectColumns = `project_id, project_title, project_description, project_image, category_id`

func scanProjects(rows *sql.Rows) ([]model.Project, error) {
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImagePath, &p.CategoryID); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating projects: %w", err)
	}
	return projects, nil
}

// ListProjects returns every project ordered by id.
func (db *DB) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM Project ORDER BY project_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing projects: %w", err)
	}
	return scanProjects(rows)
}

// ListProjectsByCategory returns the projects filed under categoryID.
func (db *DB) ListProjectsByCategory(ctx context.Context, categoryID int64) ([]model.Project, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM Project WHERE category_id = ? ORDER BY project_id ASC`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing projects of category %d: %w", categoryID, err)
	}
	return scanProjects(rows)
}

// GetProject returns apperror.ErrNotFound when no project has id.
func (db *DB) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var p model.Project
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM Project WHERE project_id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.ImagePath, &p.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("project", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting project %d: %w", id, err)
	}
	return &p, nil
}

// CreateProject inserts a project with the default image and returns its id.
// A categoryID with no Category row is a validation failure.
func (db *DB) CreateProject(ctx context.Context, title, description string, categoryID int64) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO Project (project_title, project_image, project_description, category_id)
		 VALUES (?, ?, ?, ?)`,
		title, model.DefaultProjectImage, description, categoryID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, apperror.ValidationFailed("categoryId", fmt.Sprintf("category %d does not exist", categoryID))
		}
		return 0, fmt.Errorf("sqlstore: inserting project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: reading project id: %w", err)
	}
	return id, nil
}

// UpdateProject changes the project fields and its category.
func (db *DB) UpdateProject(ctx context.Context, id int64, title, description string, categoryID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Project SET project_title = ?, project_description = ?, category_id = ?
		 WHERE project_id = ?`,
		title, description, categoryID, id,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("categoryId", fmt.Sprintf("category %d does not exist", categoryID))
		}
		return fmt.Errorf("sqlstore: updating project %d: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("project", id))
}

// UpdateProjectImage stores the image path for a project. Receiving and
// storing the file itself happens elsewhere.
func (db *DB) UpdateProjectImage(ctx context.Context, id int64, path string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Project SET project_image = ? WHERE project_id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating project %d image: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("project", id))
}

// RemoveProject deletes the project's progress rows, its videos and then the
// project itself.
func (db *DB) RemoveProject(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(q querier) error {
		return removeProject(ctx, q, id)
	})
}

// removeProject is the cascade shared by RemoveProject and RemoveCategory.
// The order is fixed: User_Project rows reference both the project and its
// videos (bookmarks), and Video rows reference the project.
func removeProject(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM User_Project WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("sqlstore: deleting progress of project %d: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM Video WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("sqlstore: deleting videos of project %d: %w", id, err)
	}

	res, err := q.ExecContext(ctx, `DELETE FROM Project WHERE project_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting project %d: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("project", id))
}

func projectIDsByCategory(ctx context.Context, q querier, categoryID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT project_id FROM Project WHERE category_id = ?`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing projects of category %d: %w", categoryID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning project id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
