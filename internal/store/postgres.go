package store

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/peakatlas/globesync/pkg/errors"
)

// OpenPostgres opens a PostgreSQL store via the pgx stdlib driver.
func OpenPostgres(dsn string) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.NewStoreError("open", "postgres", err)
	}

	return &sqlStore{
		db: db,
		dialect: dialect{
			name:          "postgres",
			idColumn:      "BIGSERIAL PRIMARY KEY",
			boolType:      "BOOLEAN",
			placeholderFn: func(i int) string { return fmt.Sprintf("$%d", i) },
		},
	}, nil
}
