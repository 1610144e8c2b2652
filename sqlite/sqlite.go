// Package sqlite keeps the comic catalogue in a SQLite database.
//
// The database holds one table, comics, keyed by comic number. Each row
// carries a content hash of its fields so a persist only rewrites rows
// whose content changed.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/fwojciec/xkcdbot"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// MemoryPath opens a database that lives only for the connection.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS comics (
	num          INTEGER PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	alt          TEXT NOT NULL DEFAULT '',
	transcript   TEXT NOT NULL DEFAULT '',
	img          TEXT NOT NULL DEFAULT '',
	year         TEXT NOT NULL DEFAULT '',
	month        TEXT NOT NULL DEFAULT '',
	day          TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	updated_at   TEXT NOT NULL
);`

// pragma is a connection setting applied right after the database opens.
type pragma struct {
	stmt string
	// onDisk marks settings that an in-memory database rejects or ignores.
	onDisk bool
}

var pragmas = []pragma{
	// Wait for a competing writer instead of failing with SQLITE_BUSY.
	{stmt: "PRAGMA busy_timeout = 5000"},
	// The write-ahead log lets readers proceed while a persist commits.
	{stmt: "PRAGMA journal_mode = WAL", onDisk: true},
}

// DB is an open SQLite database with the comics schema in place.
type DB struct {
	*sql.DB
	path string
}

// Open opens the database at path and creates the schema if it is
// missing. MemoryPath gives a throwaway database, useful in tests.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, xkcdbot.Errorf(xkcdbot.EPERSIST, "open %s: %w", path, err)
	}

	// A single connection serializes writes, and every statement sees the
	// same in-memory database.
	conn.SetMaxOpenConns(1)

	db := &DB{DB: conn, path: path}
	if err := db.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) init(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "connect %s: %w", db.path, err)
	}
	for _, p := range pragmas {
		if p.onDisk && db.path == MemoryPath {
			continue
		}
		if _, err := db.ExecContext(ctx, p.stmt); err != nil {
			return xkcdbot.Errorf(xkcdbot.EPERSIST, "%s: %w", p.stmt, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return xkcdbot.Errorf(xkcdbot.EPERSIST, "create schema: %w", err)
	}
	return nil
}

// Path returns the location the database was opened from.
func (db *DB) Path() string {
	return db.path
}
