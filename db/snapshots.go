// ABOUTME: SQLite-backed store for cached API responses
// ABOUTME: Lets a new process show the last known data while it revalidates
package db

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// SnapshotStore keeps one JSON payload per cache key.
type SnapshotStore struct {
	db *sql.DB
}

// OpenSnapshotStore opens (or creates) the database at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Load(key string) ([]byte, time.Time, bool, error) {
	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := s.db.QueryRow(
		`SELECT payload, fetched_at FROM cache_snapshots WHERE key = ?`, key,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	return payload, fetchedAt, true, nil
}

func (s *SnapshotStore) Save(key string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_snapshots (key, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, fetchedAt.UTC(),
	)
	return err
}

// DeletePrefix removes every key starting with prefix.
func (s *SnapshotStore) DeletePrefix(prefix string) error {
	_, err := s.db.Exec(`DELETE FROM cache_snapshots WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	return err
}

// Prune drops snapshots fetched before cutoff and reports how many went.
func (s *SnapshotStore) Prune(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM cache_snapshots WHERE fetched_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SnapshotStore) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM cache_snapshots ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
