package cities

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/astro/astrogo/internal/scout"
)

// citiesQuery expects a cities table with name, country and coordinate
// columns in degrees.
const citiesQuery = `SELECT name, country, lat, lon FROM cities ORDER BY name, country`

// LoadFromPostgres reads the full city list from a Postgres database.
func LoadFromPostgres(ctx context.Context, dsn string) (*Dataset, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	rows, err := db.QueryContext(ctx, citiesQuery)
	if err != nil {
		return nil, fmt.Errorf("querying cities: %w", err)
	}
	defer rows.Close()

	var out []scout.City
	for rows.Next() {
		var c scout.City
		if err := rows.Scan(&c.Name, &c.Country, &c.Lat, &c.Lng); err != nil {
			return nil, fmt.Errorf("scanning city row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating city rows: %w", err)
	}

	return &Dataset{
		Source:   "postgres",
		LoadedAt: time.Now(),
		Cities:   out,
	}, nil
}
