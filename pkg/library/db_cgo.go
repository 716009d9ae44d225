//go:build cgo_sqlite

package library

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// OpenStatsDB opens the render-stats database at dataSource using the cgo
// sqlite3 driver. Built when the cgo_sqlite tag is set.
func OpenStatsDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite3", dataSource)
}
