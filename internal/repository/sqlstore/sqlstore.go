// Package sqlstore is the Persistence Gateway: one parameterized statement
// (or one short transaction of them) per domain operation, on database/sql.
//
// Two drivers are supported and share every statement, since both use "?"
// placeholders:
//
//   - "sqlite" (modernc.org/sqlite, pure Go): the default. The schema is
//     created by the embedded migration on Open. Use ":memory:" in tests.
//   - "mysql" (github.com/go-sql-driver/mysql): the schema is managed
//     outside the application. Open forces parseTime and clientFoundRows
//     on the DSN because the gateway scans DATETIME columns into time.Time
//     and relies on RowsAffected to detect missing rows.
//
// SQL text never contains user input. Where a statement depends on a choice
// (reorder direction) the choice selects between constant strings.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/reelhub/internal/repository"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn   *sql.DB
	driver string
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the cascade helpers
// can run either standalone or inside a caller's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects with the named driver and verifies the connection.
//
// dsn examples:
//   - sqlite: "data/reelhub.db", ":memory:"
//   - mysql:  "reel:secret@tcp(localhost:3306)/reelhub"
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverMySQL:
		return openMySQL(dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// New opens a sqlite database. Kept for tests and small tools.
func New(dbPath string) (*DB, error) {
	return openSQLite(dbPath)
}

func openSQLite(dbPath string) (*DB, error) {
	conn, err := sql.Open(DriverSQLite, dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening sqlite database: %w", err)
	}

	// One connection: sqlite serializes writers anyway, and ":memory:" is a
	// separate database per connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging sqlite database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in sqlite. With them on, every cascade
	// below must delete children before parents or fail.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, driver: DriverSQLite}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: running migrations: %w", err)
	}

	return db, nil
}

func openMySQL(dsn string) (*DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: creating mysql connector: %w", err)
	}
	conn := sql.OpenDB(connector)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlstore: pinging mysql database: %w", err)
	}

	return &DB{conn: conn, driver: DriverMySQL}, nil
}

// Driver returns the driver name the store was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (db *DB) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// requireAffected turns a zero-row write into the resource's NotFound.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation reports a duplicate key from either driver.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062 // ER_DUP_ENTRY
	}
	return false
}

// isForeignKeyViolation reports a reference to a missing parent row.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "FOREIGN KEY")
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452 // ER_NO_REFERENCED_ROW_2
	}
	return false
}
