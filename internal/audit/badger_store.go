// Vigil - Keystroke Keyword Lockdown Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package audit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key layout:
//
//	event:<16 hex digits of unix nanos>:<id> -> event JSON
//	event_id:<id>                            -> primary key
const (
	eventKeyPrefix   = "event:"
	eventIDKeyPrefix = "event_id:"
	tsHexLen         = 16
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// OpenBadgerStore opens or creates a journal database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStore wraps an open database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the database if OpenBadgerStore opened it.
func (s *BadgerStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// RunGC reclaims value log space left by deleted events.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

func eventKey(ts time.Time, id string) []byte {
	return []byte(eventKeyPrefix + tsHex(ts) + ":" + id)
}

func tsHex(ts time.Time) string {
	return fmt.Sprintf("%0*x", tsHexLen, uint64(ts.UnixNano()))
}

// keyTime parses the timestamp out of a primary key.
func keyTime(key []byte) (time.Time, bool) {
	if len(key) < len(eventKeyPrefix)+tsHexLen {
		return time.Time{}, false
	}
	raw := string(key[len(eventKeyPrefix) : len(eventKeyPrefix)+tsHexLen])
	nanos, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, int64(nanos)), true
}

// keyID returns the event ID suffix of a primary key.
func keyID(key []byte) string {
	start := len(eventKeyPrefix) + tsHexLen + 1
	if len(key) <= start {
		return ""
	}
	return string(key[start:])
}

// Save persists an event and its ID index.
func (s *BadgerStore) Save(_ context.Context, event *Event) error {
	if event.ID == "" {
		return errors.New("journal event has no id")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := eventKey(event.Timestamp, event.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set event: %w", err)
		}
		if err := txn.Set([]byte(eventIDKeyPrefix+event.ID), key); err != nil {
			return fmt.Errorf("set event index: %w", err)
		}
		return nil
	})
}

// Get retrieves an event by ID.
func (s *BadgerStore) Get(_ context.Context, id string) (*Event, error) {
	var event Event
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(eventIDKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get event index: %w", err)
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrEventNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// scan walks matching events newest first until fn returns false.
func (s *BadgerStore) scan(filter *QueryFilter, fn func(*Event) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		seek := append([]byte(eventKeyPrefix), 0xff)
		if filter.EndTime != nil {
			seek = append([]byte(eventKeyPrefix+tsHex(*filter.EndTime)+":"), 0xff)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if filter.StartTime != nil {
				if ts, ok := keyTime(item.Key()); ok && ts.Before(*filter.StartTime) {
					return nil
				}
			}

			var event Event
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				continue
			}
			if !filter.Matches(&event) {
				continue
			}
			if !fn(&event) {
				return nil
			}
		}
		return nil
	})
}

// Query returns matching events, newest first.
func (s *BadgerStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	var results []Event
	skipped := 0
	err := s.scan(&filter, func(e *Event) bool {
		if skipped < filter.Offset {
			skipped++
			return true
		}
		results = append(results, *e)
		return filter.Limit <= 0 || len(results) < filter.Limit
	})
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	return results, nil
}

// Count returns the number of matching events.
func (s *BadgerStore) Count(_ context.Context, filter QueryFilter) (int64, error) {
	var count int64
	err := s.scan(&filter, func(*Event) bool {
		count++
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("count journal: %w", err)
	}
	return count, nil
}

// Delete removes events older than olderThan.
func (s *BadgerStore) Delete(_ context.Context, olderThan time.Time) (int64, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ts, ok := keyTime(key)
			if !ok {
				continue
			}
			if !ts.Before(olderThan) {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan journal: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete event: %w", err)
		}
		if id := keyID(key); id != "" {
			if err := wb.Delete([]byte(eventIDKeyPrefix + id)); err != nil {
				return 0, fmt.Errorf("delete event index: %w", err)
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}
	return int64(len(keys)), nil
}

var _ Store = (*BadgerStore)(nil)
