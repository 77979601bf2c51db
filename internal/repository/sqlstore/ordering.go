package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/reelhub/internal/model"
)

// ordering holds the constant statements used to swap a row's order value
// with its nearest neighbor. Scope arguments (e.g. project_id) are bound
// before the current order value.
type ordering struct {
	table    string
	neighbor map[model.Direction]string
	maxOrder string
	setOrder string
}

var videoOrdering = ordering{
	table: "video",
	neighbor: map[model.Direction]string{
		model.DirectionUp: `SELECT video_id, video_order FROM Video
			WHERE project_id = ? AND video_order < ?
			ORDER BY video_order DESC LIMIT 1`,
		model.DirectionDown: `SELECT video_id, video_order FROM Video
			WHERE project_id = ? AND video_order > ?
			ORDER BY video_order ASC LIMIT 1`,
	},
	maxOrder: `SELECT COALESCE(MAX(video_order), 0) FROM Video WHERE project_id = ?`,
	setOrder: `UPDATE Video SET video_order = ? WHERE video_id = ?`,
}

var categoryOrdering = ordering{
	table: "category",
	neighbor: map[model.Direction]string{
		model.DirectionUp: `SELECT category_id, category_order FROM Category
			WHERE category_order < ?
			ORDER BY category_order DESC LIMIT 1`,
		model.DirectionDown: `SELECT category_id, category_order FROM Category
			WHERE category_order > ?
			ORDER BY category_order ASC LIMIT 1`,
	},
	maxOrder: `SELECT COALESCE(MAX(category_order), 0) FROM Category`,
	setOrder: `UPDATE Category SET category_order = ? WHERE category_id = ?`,
}

// nextOrder returns max(order)+1 within scope; an empty scope yields 1.
func (o ordering) nextOrder(ctx context.Context, q querier, scope ...any) (int, error) {
	var max int
	if err := q.QueryRowContext(ctx, o.maxOrder, scope...).Scan(&max); err != nil {
		return 0, fmt.Errorf("sqlstore: reading max %s order: %w", o.table, err)
	}
	return max + 1, nil
}

// swap exchanges the order of row id (currently at order) with its nearest
// neighbor in dir. It reports false, and changes nothing, when the row is
// already at that extreme.
func (o ordering) swap(ctx context.Context, q querier, id int64, order int, dir model.Direction, scope ...any) (bool, error) {
	query, ok := o.neighbor[dir]
	if !ok {
		return false, fmt.Errorf("sqlstore: unknown direction %q", dir)
	}

	var (
		otherID    int64
		otherOrder int
	)
	args := append(append([]any{}, scope...), order)
	err := q.QueryRowContext(ctx, query, args...).Scan(&otherID, &otherOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlstore: finding %s neighbor of %d: %w", o.table, id, err)
	}

	if _, err := q.ExecContext(ctx, o.setOrder, otherOrder, id); err != nil {
		return false, fmt.Errorf("sqlstore: moving %s %d: %w", o.table, id, err)
	}
	if _, err := q.ExecContext(ctx, o.setOrder, order, otherID); err != nil {
		return false, fmt.Errorf("sqlstore: moving %s %d: %w", o.table, otherID, err)
	}
	return true, nil
}
