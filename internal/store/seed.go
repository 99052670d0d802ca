package store

import (
	"context"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/peakatlas/globesync/pkg/errors"
)

// Seed describes tables and rows to load into a fresh store.
type Seed struct {
	Tables []SeedTable `yaml:"tables"`
}

// SeedTable is one table's seed data.
type SeedTable struct {
	Name string    `yaml:"name"`
	Rows []SeedRow `yaml:"rows"`
}

// SeedRow is one seeded point of interest. Coordinates are optional; rows
// without them are left for the geocode worker.
type SeedRow struct {
	Name        string             `yaml:"name"`
	NearestCity string             `yaml:"nearest_city"`
	Region      string             `yaml:"region"`
	Country     string             `yaml:"country"`
	Longitude   *float64           `yaml:"longitude"`
	Latitude    *float64           `yaml:"latitude"`
	Metrics     map[string]float64 `yaml:"metrics"`
}

// LoadSeed parses a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewParseError("yaml", path, "reading seed file", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.NewParseError("yaml", path, "parsing seed file", err)
	}

	for _, table := range seed.Tables {
		if err := ValidateTableName(table.Name); err != nil {
			return nil, err
		}
		for _, row := range table.Rows {
			if row.Name == "" {
				return nil, errors.NewValidationError("name", row, "seed rows require a name")
			}
		}
	}
	return &seed, nil
}

// Apply creates the seed's tables and inserts its rows.
func (s *Seed) Apply(ctx context.Context, st Store) error {
	for _, table := range s.Tables {
		if err := st.CreateTable(ctx, table.Name); err != nil {
			return err
		}
		for _, row := range table.Rows {
			poi := POI{
				Name:        row.Name,
				NearestCity: row.NearestCity,
				Region:      row.Region,
				Country:     row.Country,
				Longitude:   row.Longitude,
				Latitude:    row.Latitude,
				Metrics:     row.Metrics,
			}
			if _, err := st.Insert(ctx, table.Name, poi); err != nil {
				return err
			}
		}
	}
	return nil
}
