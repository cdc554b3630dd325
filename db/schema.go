// ABOUTME: Database schema definitions
// ABOUTME: One table of cached API responses keyed by resource path
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_snapshots (
	key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_snapshots_fetched_at ON cache_snapshots(fetched_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
