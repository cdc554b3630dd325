// ABOUTME: BadgerDB-backed store for cached API responses
// ABOUTME: Values carry an 8-byte fetch timestamp ahead of the JSON payload
package db

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const stampLen = 8

type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens a store in dir. With inMemory set, dir is ignored and
// nothing touches disk.
func OpenBadger(dir string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func encodeSnapshot(payload []byte, fetchedAt time.Time) []byte {
	buf := make([]byte, stampLen+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(fetchedAt.UnixNano()))
	copy(buf[stampLen:], payload)
	return buf
}

func decodeSnapshot(v []byte) ([]byte, time.Time, error) {
	if len(v) < stampLen {
		return nil, time.Time{}, errors.New("corrupt snapshot")
	}
	at := time.Unix(0, int64(binary.BigEndian.Uint64(v[:stampLen])))
	return v[stampLen:], at, nil
}

func (s *BadgerStore) Load(key string) ([]byte, time.Time, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	payload, at, err := decodeSnapshot(value)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("%s: %w", key, err)
	}
	return payload, at, true, nil
}

func (s *BadgerStore) Save(key string, payload []byte, fetchedAt time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeSnapshot(payload, fetchedAt))
	})
}

func (s *BadgerStore) DeletePrefix(prefix string) error {
	keys, err := s.Keys(prefix)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) Keys(prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Prune drops snapshots fetched before cutoff.
func (s *BadgerStore) Prune(cutoff time.Time) (int, error) {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				_, at, err := decodeSnapshot(v)
				if err != nil || at.Before(cutoff) {
					stale = append(stale, item.KeyCopy(nil))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
