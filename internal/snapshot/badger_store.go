package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// BadgerStore keeps records in an embedded key-value store under keys of the
// form <project>\x00<path>.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store at dir. An empty dir opens an
// in-memory store.
func OpenBadger(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerStore) Append(ctx context.Context, projectID string, records []types.FileRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return err
	}
	if err := checkRecords(records); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range latestByPath(records) {
			key := []byte(badgerPrefix(id) + rec.Path)
			cur, found, err := getBadgerRecord(txn, key)
			if err != nil {
				return err
			}
			if found && !newer(rec, cur) {
				continue
			}
			raw, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", rec.Path, err)
			}
			if err := txn.Set(key, raw); err != nil {
				return fmt.Errorf("set %s: %w", rec.Path, err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) Load(ctx context.Context, projectID string) ([]types.FileRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := []byte(badgerPrefix(id))
	var out []types.FileRecord
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec types.FileRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecords(out)
	return out, nil
}

func getBadgerRecord(txn *badger.Txn, key []byte) (types.FileRecord, bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.FileRecord{}, false, nil
	}
	if err != nil {
		return types.FileRecord{}, false, err
	}
	var rec types.FileRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return types.FileRecord{}, false, err
	}
	return rec, true, nil
}

func badgerPrefix(projectID string) string {
	return projectID + "\x00"
}
