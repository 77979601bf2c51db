package sqlstore

import "fmt"

// schema is the sqlite rendition of the catalog tables. Table and column
// names match the MySQL deployment exactly; only the DDL dialect differs.
//
// User_Project has no uniqueness on (user_id, project_id): GiveProject
// relies on that.
var schema = []struct {
	name string
	ddl  string
}{
	{"Category", `
		CREATE TABLE IF NOT EXISTS Category (
			category_id          INTEGER PRIMARY KEY AUTOINCREMENT,
			category_title       TEXT NOT NULL,
			category_description TEXT NOT NULL DEFAULT '',
			category_order       INTEGER NOT NULL
		)`},
	{"Project", `
		CREATE TABLE IF NOT EXISTS Project (
			project_id          INTEGER PRIMARY KEY AUTOINCREMENT,
			project_title       TEXT NOT NULL,
			project_image       TEXT NOT NULL DEFAULT '',
			project_description TEXT NOT NULL DEFAULT '',
			category_id         INTEGER NOT NULL REFERENCES Category(category_id)
		)`},
	{"Video", `
		CREATE TABLE IF NOT EXISTS Video (
			video_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id  INTEGER NOT NULL REFERENCES Project(project_id),
			video_title TEXT NOT NULL,
			video_url   TEXT NOT NULL,
			video_order INTEGER NOT NULL
		)`},
	{"User", `
		CREATE TABLE IF NOT EXISTS User (
			user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
			user_name     TEXT NOT NULL UNIQUE,
			user_nickname TEXT NOT NULL,
			user_password TEXT NOT NULL,
			user_is_admin INTEGER NOT NULL DEFAULT 0
		)`},
	{"Session", `
		CREATE TABLE IF NOT EXISTS Session (
			session_id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_title       TEXT NOT NULL,
			session_description TEXT NOT NULL DEFAULT ''
		)`},
	{"User_Session", `
		CREATE TABLE IF NOT EXISTS User_Session (
			user_id                  INTEGER NOT NULL REFERENCES User(user_id),
			session_id               INTEGER NOT NULL REFERENCES Session(session_id),
			user_session_date_joined DATETIME NOT NULL,
			user_session_last_login  DATETIME,
			user_session_permission  TEXT NOT NULL DEFAULT 'user',
			PRIMARY KEY (user_id, session_id)
		)`},
	{"User_Project", `
		CREATE TABLE IF NOT EXISTS User_Project (
			user_id                    INTEGER NOT NULL REFERENCES User(user_id),
			project_id                 INTEGER NOT NULL REFERENCES Project(project_id),
			user_project_bookmark      INTEGER REFERENCES Video(video_id),
			user_project_date_complete DATETIME
		)`},
	{"indexes", `
		CREATE INDEX IF NOT EXISTS idx_video_project_order ON Video(project_id, video_order);
		CREATE INDEX IF NOT EXISTS idx_project_category ON Project(category_id);
		CREATE INDEX IF NOT EXISTS idx_user_session_session ON User_Session(session_id);
		CREATE INDEX IF NOT EXISTS idx_user_project_user_project ON User_Project(user_id, project_id)`},
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	for _, step := range schema {
		if _, err := db.conn.Exec(step.ddl); err != nil {
			return fmt.Errorf("creating %s: %w", step.name, err)
		}
	}
	return nil
}
