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

var _ repository.SessionRepository = (*DB)(nil)

func scanSessions(rows *sql.Rows) ([]model.Session, error) {
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.Title, &s.Description); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating sessions: %w", err)
	}
	return sessions, nil
}

// ListSessions returns every session.
func (db *DB) ListSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT session_id, session_title, session_description FROM Session ORDER BY session_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing sessions: %w", err)
	}
	return scanSessions(rows)
}

// ListSessionsForUser returns the sessions the user belongs to, least
// recently logged-in first (never-logged-in memberships sort first).
func (db *DB) ListSessionsForUser(ctx context.Context, userID int64) ([]model.Session, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT Session.session_id, Session.session_title, Session.session_description
		 FROM User_Session
		 INNER JOIN Session ON Session.session_id = User_Session.session_id
		 WHERE User_Session.user_id = ?
		 ORDER BY User_Session.user_session_last_login ASC, Session.session_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing sessions of user %d: %w", userID, err)
	}
	return scanSessions(rows)
}

// GetSession returns the session with id, or apperror.ErrNotFound.
func (db *DB) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT session_id, session_title, session_description FROM Session WHERE session_id = ?`, id,
	).Scan(&s.ID, &s.Title, &s.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("session", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting session %d: %w", id, err)
	}
	return &s, nil
}

// CreateSession inserts a session and returns its id.
func (db *DB) CreateSession(ctx context.Context, title, description string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO Session (session_title, session_description) VALUES (?, ?)`,
		title, description,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: inserting session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: reading session id: %w", err)
	}
	return id, nil
}

// UpdateSession changes the title and description of a session.
func (db *DB) UpdateSession(ctx context.Context, id int64, title, description string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE Session SET session_title = ?, session_description = ? WHERE session_id = ?`,
		title, description, id,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating session %d: %w", id, err)
	}
	return requireAffected(res, apperror.NotFound("session", id))
}

// DeleteSession removes the session's memberships, then the session. Users
// themselves are kept.
func (db *DB) DeleteSession(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM User_Session WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("sqlstore: deleting memberships of session %d: %w", id, err)
		}

		res, err := q.ExecContext(ctx, `DELETE FROM Session WHERE session_id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlstore: deleting session %d: %w", id, err)
		}
		return requireAffected(res, apperror.NotFound("session", id))
	})
}

// GetMembership returns the user's membership row in the session, or
// apperror.ErrNotFound when the user is not a member.
func (db *DB) GetMembership(ctx context.Context, userID, sessionID int64) (*model.Membership, error) {
	var (
		m         model.Membership
		joined    sql.NullTime
		lastLogin sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, session_id, user_session_date_joined, user_session_last_login, user_session_permission
		 FROM User_Session WHERE user_id = ? AND session_id = ?`,
		userID, sessionID,
	).Scan(&m.UserID, &m.SessionID, &joined, &lastLogin, &m.Permission)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("membership", fmt.Sprintf("%d/%d", userID, sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting membership of user %d in session %d: %w", userID, sessionID, err)
	}
	m.JoinedAt = joined.Time
	if lastLogin.Valid {
		t := lastLogin.Time
		m.LastLogin = &t
	}
	return &m, nil
}

// TouchLastLogin stamps every membership of the user with the current time.
func (db *DB) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE User_Session SET user_session_last_login = ? WHERE user_id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: touching last login of user %d: %w", userID, err)
	}
	return nil
}
