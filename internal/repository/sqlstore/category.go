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

var _ repository.CategoryRepository = (*DB)(nil)

const categoryColumns = `category_id, category_title, category_description, category_order`

// ListCategories returns every category in display order.
func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM Category ORDER BY category_order ASC, category_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Order); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns apperror.ErrNotFound when no category has id.
func (db *DB) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM Category WHERE category_id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting category %d: %w", id, err)
	}
	return &c, nil
}

// AddCategory appends a category after the current highest order.
//
// The max read and the insert share a transaction, so two concurrent adds
// cannot both claim the same order.
func (db *DB) AddCategory(ctx context.Context, title, description string) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(q querier) error {
		order, err := categoryOrdering.nextOrder(ctx, q)
		if err != nil {
			return err
		}

		res, err := q.ExecContext(ctx,
			`INSERT INTO Category (category_title, category_description, category_order)
			 VALUES (?, ?, ?)`,
			title, description, order,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: inserting category: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlstore: reading category id: %w", err)
		}
		return nil
	})
	return id, err
}

// UpdateCategory changes the title and description of a category.
func (db *DB) UpdateCategory(ctx context.Context, id int64, title, description string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Category SET category_title = ?, category_description = ?
		 WHERE category_id = ?`,
		title, description, id,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating category %d: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("category", id))
}

// MoveCategory swaps the category's order with its nearest neighbor.
// Moving the first category up, or the last down, is a no-op (false).
func (db *DB) MoveCategory(ctx context.Context, id int64, dir model.Direction) (bool, error) {
	var moved bool
	err := db.withTx(ctx, func(q querier) error {
		var order int
		err := q.QueryRowContext(ctx,
			`SELECT category_order FROM Category WHERE category_id = ?`, id,
		).Scan(&order)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("category", id)
		}
		if err != nil {
			return fmt.Errorf("sqlstore: getting category %d order: %w", id, err)
		}

		moved, err = categoryOrdering.swap(ctx, q, id, order, dir)
		return err
	})
	return moved, err
}

// RemoveCategory removes every project of the category (each with its own
// children first), then the category row.
func (db *DB) RemoveCategory(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(q querier) error {
		projectIDs, err := projectIDsByCategory(ctx, q, id)
		if err != nil {
			return err
		}
		for _, pid := range projectIDs {
			if err := removeProject(ctx, q, pid); err != nil {
				return err
			}
		}

		res, err := q.ExecContext(ctx, `DELETE FROM Category WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting category %d: %w", id, err)
		}
		return requireAffected(res, apperror.NotFound("category", id))
	})
}
