//go:build !cgo_sqlite

package library

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// OpenStatsDB opens the render-stats database at dataSource using the
// pure-Go sqlite driver. Built by default (no cgo_sqlite tag).
func OpenStatsDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", dataSource)
}
