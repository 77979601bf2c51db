package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/reelhub/internal/apperror"
	"github.com/sakif/reelhub/internal/model"
	"github.com/sakif/reelhub/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `user_id, user_name, user_nickname, user_password, user_is_admin`

func scanUser(row *sql.Row, notFound error) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Nickname, &u.PasswordHash, &u.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scanning user: %w", err)
	}
	return &u, nil
}

// GetUser returns the user with id, or apperror.ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM User WHERE user_id = ?`, id)
	return scanUser(row, apperror.NotFound("user", id))
}

// GetUserByName looks a user up by login name. The credential check is the
// caller's job.
func (db *DB) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM User WHERE user_name = ?`, name)
	return scanUser(row, apperror.NotFound("user", name))
}

// ListUsersBySession returns the roster (id and nickname) of a session.
func (db *DB) ListUsersBySession(ctx context.Context, sessionID int64) ([]model.Member, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT User.user_id, User.user_nickname FROM User
		 INNER JOIN User_Session ON User.user_id = User_Session.user_id
		 WHERE User_Session.session_id = ?
		 ORDER BY User.user_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing users of session %d: %w", sessionID, err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Nickname); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating members: %w", err)
	}
	return members, nil
}

// CreateUser inserts a non-admin user and enrolls them in sessionID with the
// "user" permission. It returns the new user's id.
func (db *DB) CreateUser(ctx context.Context, sessionID int64, name, nickname, passwordHash string) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(q querier) error {
		var err error
		id, err = insertUser(ctx, q, name, nickname, passwordHash, false)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO User_Session
			   (user_id, session_id, user_session_date_joined, user_session_last_login, user_session_permission)
			 VALUES (?, ?, ?, NULL, ?)`,
			id, sessionID, time.Now().UTC(), model.PermissionUser,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperror.NotFound("session", sessionID)
			}
			return fmt.Errorf("sqlstore: enrolling user %d in session %d: %w", id, sessionID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateAdmin inserts an admin user without any session membership.
func (db *DB) CreateAdmin(ctx context.Context, name, nickname, passwordHash string) (int64, error) {
	return insertUser(ctx, db.conn, name, nickname, passwordHash, true)
}

func insertUser(ctx context.Context, q querier, name, nickname, passwordHash string, admin bool) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO User (user_name, user_nickname, user_password, user_is_admin)
		 VALUES (?, ?, ?, ?)`,
		name, nickname, passwordHash, admin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperror.Conflict("user", name)
		}
		return 0, fmt.Errorf("sqlstore: inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: reading user id: %w", err)
	}
	return id, nil
}

// UpdateUser replaces name, nickname and password hash of a user.
func (db *DB) UpdateUser(ctx context.Context, id int64, name, nickname, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE User SET user_name = ?, user_nickname = ?, user_password = ?
		 WHERE user_id = ?`,
		name, nickname, passwordHash, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", name)
		}
		return fmt.Errorf("sqlstore: updating user %d: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("user", id))
}

// RemoveUser deletes the user's memberships, then their progress rows, then
// the user.
func (db *DB) RemoveUser(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM User_Session WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("sqlstore: deleting memberships of user %d: %w", id, err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM User_Project WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("sqlstore: deleting progress of user %d: %w", id, err)
		}

		res, err := q.ExecContext(ctx, `DELETE FROM User WHERE user_id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
		}
		return requireAffected(res, apperror.NotFound("user", id))
	})
}

// UserCount returns the number of user accounts.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM User`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlstore: counting users: %w", err)
	}
	return n, nil
}
