package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/crmview/cache"
)

// Both stores must satisfy the cache's persistence contract.
var (
	_ cache.Store = (*SnapshotStore)(nil)
	_ cache.Store = (*BadgerStore)(nil)
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "cache.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='cache_snapshots'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected cache_snapshots table, got %d", count)
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenDatabase(filepath.Join(blocker, "cache.db")); err == nil {
		t.Error("Expected error when the parent path is a file")
	}
}

type store interface {
	cache.Store
	Keys(prefix string) ([]string, error)
	Prune(cutoff time.Time) (int, error)
}

func openStores(t *testing.T) map[string]store {
	t.Helper()
	sqlite, err := OpenSnapshotStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSnapshotStore failed: %v", err)
	}
	badgerDisk, err := OpenBadger(filepath.Join(t.TempDir(), "badger"), false)
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	badgerMem, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger in memory failed: %v", err)
	}
	stores := map[string]store{
		"sqlite":        sqlite,
		"badger":        badgerDisk,
		"badger-memory": badgerMem,
		"memory":        cache.NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreRoundTrip(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, _, ok, err := s.Load("contacts?page_num=0"); err != nil || ok {
				t.Fatalf("Load on empty store = ok %v, err %v", ok, err)
			}

			if err := s.Save("contacts?page_num=0", []byte(`{"items":[]}`), at); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if err := s.Save("contacts?page_num=0", []byte(`{"items":[],"total_items":0}`), at.Add(time.Minute)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}

			payload, fetchedAt, ok, err := s.Load("contacts?page_num=0")
			if err != nil || !ok {
				t.Fatalf("Load = ok %v, err %v", ok, err)
			}
			if string(payload) != `{"items":[],"total_items":0}` {
				t.Errorf("payload = %s", payload)
			}
			if !fetchedAt.Equal(at.Add(time.Minute)) {
				t.Errorf("fetchedAt = %v", fetchedAt)
			}
		})
	}
}

func TestStoreDeletePrefixAndPrune(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(48 * time.Hour)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for key, at := range map[string]time.Time{
				"contacts?page_num=0":      recent,
				"contacts/abc":             old,
				"organizations?page_num=0": old,
				"settings":                 recent,
			} {
				if err := s.Save(key, []byte("{}"), at); err != nil {
					t.Fatalf("Save %s failed: %v", key, err)
				}
			}

			keys, err := s.Keys("contacts")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 2 {
				t.Errorf("Keys(contacts) = %v", keys)
			}

			if err := s.DeletePrefix("contacts"); err != nil {
				t.Fatalf("DeletePrefix failed: %v", err)
			}
			if keys, _ := s.Keys(""); len(keys) != 2 {
				t.Errorf("after DeletePrefix keys = %v", keys)
			}

			n, err := s.Prune(old.Add(24 * time.Hour))
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if n != 1 {
				t.Errorf("Prune removed %d, want 1", n)
			}
			keys, _ = s.Keys("")
			if len(keys) != 1 || keys[0] != "settings" {
				t.Errorf("after Prune keys = %v", keys)
			}
		})
	}
}
