// Package cities loads and serves the candidate city dataset: CSV
// parsing, remote fetch, disk cache, Postgres source, and an atomically
// swappable in-memory store.
package cities

import (
	"time"

	"github.com/astro/astrogo/internal/scout"
)

// Dataset is a complete city list from one source.
type Dataset struct {
	Source   string
	LoadedAt time.Time
	Cities   []scout.City
}
