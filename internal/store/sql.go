package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/peakatlas/globesync/pkg/errors"
)

// dialect covers the differences between the supported SQL backends.
// Column metrics are stored as a JSON text blob so both use the same
// row shape.
type dialect struct {
	name          string
	idColumn      string // DDL for the primary key column
	boolType      string
	placeholderFn func(i int) string
}

func (d dialect) placeholder(i int) string {
	return d.placeholderFn(i)
}

// placeholders renders n parameter markers starting at position 1.
func (d dialect) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

// sqlStore implements Store on top of database/sql for any dialect.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

var _ Store = (*sqlStore)(nil)

const registryTable = "dataset_tables"

func (s *sqlStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY)`, registryTable)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.NewStoreError("ensure_schema", registryTable, err)
	}
	return nil
}

func (s *sqlStore) CreateTable(ctx context.Context, table string) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id %s,
		name TEXT NOT NULL,
		nearest_city TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		longitude DOUBLE PRECISION,
		latitude DOUBLE PRECISION,
		metrics TEXT NOT NULL DEFAULT '{}',
		geocode_attempts INTEGER NOT NULL DEFAULT 0,
		geocode_failed %s NOT NULL DEFAULT FALSE
	)`, table, s.dialect.idColumn, s.dialect.boolType)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.NewStoreError("create_table", table, err)
	}

	register := fmt.Sprintf(`INSERT INTO %s (name) VALUES (%s) ON CONFLICT (name) DO NOTHING`,
		registryTable, s.dialect.placeholder(1))
	if _, err := s.db.ExecContext(ctx, register, table); err != nil {
		return errors.NewStoreError("create_table", table, err)
	}
	return nil
}

func (s *sqlStore) Tables(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, registryTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("tables", registryTable, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewStoreError("tables", registryTable, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("tables", registryTable, err)
	}
	return tables, nil
}

func (s *sqlStore) registered(ctx context.Context, table string) error {
	if err := ValidateTableName(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE name = %s`, registryTable, s.dialect.placeholder(1))
	var one int
	if err := s.db.QueryRowContext(ctx, query, table).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return errors.NewNotFoundError("table", table)
		}
		return errors.NewStoreError("lookup", table, err)
	}
	return nil
}

func (s *sqlStore) Insert(ctx context.Context, table string, p POI) (int64, error) {
	if err := s.registered(ctx, table); err != nil {
		return 0, err
	}

	metrics, err := json.Marshal(p.Metrics)
	if err != nil {
		return 0, errors.NewStoreError("insert", table, err)
	}

	cols := `name, nearest_city, region, country, longitude, latitude, metrics`
	args := []any{p.Name, p.NearestCity, p.Region, p.Country, p.Longitude, p.Latitude, string(metrics)}

	// pgx has no LastInsertId; RETURNING works on both backends.
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
		table, cols, s.dialect.placeholders(len(args)))
	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, errors.NewStoreError("insert", table, err)
	}
	return id, nil
}

const poiColumns = `id, name, nearest_city, region, country, longitude, latitude, metrics, geocode_attempts, geocode_failed`

func (s *sqlStore) scanPOIs(rows *sql.Rows, table string) ([]POI, error) {
	var pois []POI
	for rows.Next() {
		var (
			p       POI
			metrics string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.NearestCity, &p.Region, &p.Country,
			&p.Longitude, &p.Latitude, &metrics, &p.GeocodeAttempts, &p.GeocodeFailed); err != nil {
			return nil, errors.NewStoreError("scan", table, err)
		}
		if metrics != "" && metrics != "{}" {
			if err := json.Unmarshal([]byte(metrics), &p.Metrics); err != nil {
				return nil, errors.NewStoreError("scan", table, err)
			}
		}
		pois = append(pois, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("scan", table, err)
	}
	return pois, nil
}

func (s *sqlStore) Features(ctx context.Context, table string) ([]POI, error) {
	if err := s.registered(ctx, table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE longitude IS NOT NULL AND latitude IS NOT NULL ORDER BY id`, poiColumns, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("features", table, err)
	}
	defer rows.Close()
	return s.scanPOIs(rows, table)
}

func (s *sqlStore) Pending(ctx context.Context, table string, maxAttempts, limit int) ([]POI, error) {
	if err := s.registered(ctx, table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE longitude IS NULL AND geocode_failed = FALSE AND geocode_attempts < %s
		ORDER BY geocode_attempts, id LIMIT %s`,
		poiColumns, table, s.dialect.placeholder(1), s.dialect.placeholder(2))
	rows, err := s.db.QueryContext(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, errors.NewStoreError("pending", table, err)
	}
	defer rows.Close()
	return s.scanPOIs(rows, table)
}

func (s *sqlStore) SetCoordinates(ctx context.Context, table string, id int64, lon, lat float64) error {
	query := fmt.Sprintf(`UPDATE %s SET longitude = %s, latitude = %s WHERE id = %s`,
		table, s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3))
	return s.exec(ctx, "set_coordinates", table, id, query, lon, lat, id)
}

func (s *sqlStore) MarkAttempt(ctx context.Context, table string, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET geocode_attempts = geocode_attempts + 1 WHERE id = %s`,
		table, s.dialect.placeholder(1))
	return s.exec(ctx, "mark_attempt", table, id, query, id)
}

func (s *sqlStore) MarkFailed(ctx context.Context, table string, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET geocode_failed = TRUE WHERE id = %s`,
		table, s.dialect.placeholder(1))
	return s.exec(ctx, "mark_failed", table, id, query, id)
}

// exec runs a row-targeted update and converts a zero-row result into a
// NotFoundError.
func (s *sqlStore) exec(ctx context.Context, op, table string, id int64, query string, args ...any) error {
	if err := s.registered(ctx, table); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewStoreError(op, table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreError(op, table, err)
	}
	if affected == 0 {
		return errors.NewNotFoundError("row", fmt.Sprintf("%s/%d", table, id))
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
