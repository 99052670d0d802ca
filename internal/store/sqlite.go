package store

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/peakatlas/globesync/pkg/errors"
)

// OpenSQLite opens a file-backed SQLite store. Use ":memory:" for an
// in-process database.
func OpenSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStoreError("open", "sqlite", err)
	}

	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	return &sqlStore{
		db: db,
		dialect: dialect{
			name:          "sqlite",
			idColumn:      "INTEGER PRIMARY KEY AUTOINCREMENT",
			boolType:      "BOOLEAN",
			placeholderFn: func(int) string { return "?" },
		},
	}, nil
}
