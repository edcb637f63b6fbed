package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"netwatch-sim/internal/telemetry"

	"github.com/dgraph-io/badger/v4"
)

// Key layout:
//
//	node/<id>                 node document
//	alert/<id>                alert document
//	open/<unixnano>/<id>      marker for each unresolved alert
//	chat/<unixnano>/<id>      chat exchange document
//
// Timestamps are zero-padded so byte order equals time order and reads can
// walk the prefixes backwards for newest-first results.
var (
	nodePrefix  = []byte("node/")
	alertPrefix = []byte("alert/")
	openPrefix  = []byte("open/")
	chatPrefix  = []byte("chat/")
)

const maxTxnRetries = 5

// BadgerStore persists records in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
	gc *gcRunner
}

// OpenBadger opens (or creates) a store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}
	s := &BadgerStore{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		gc, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		s.gc = gc
	}
	return s, nil
}

// OpenBadgerInMemory opens a store that vanishes on Close.
func OpenBadgerInMemory() (*BadgerStore, error) {
	return OpenBadger(InMemoryBadgerConfig())
}

func timeKey(prefix []byte, ts time.Time, id string) []byte {
	nanos := ts.UnixNano()
	if nanos < 0 {
		nanos = 0
	}
	return []byte(fmt.Sprintf("%s%020d/%s", prefix, nanos, id))
}

func idKey(prefix []byte, id string) []byte {
	return append(append([]byte{}, prefix...), id...)
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("context cancelled: %w", ctxErr)
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *BadgerStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	return s.db.View(fn)
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return txn.Set(key, raw)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// scanReverse walks keys under prefix from last to first until fn returns
// false.
func scanReverse(txn *badger.Txn, prefix []byte, keysOnly bool, fn func(item *badger.Item) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix
	opts.PrefetchValues = !keysOnly
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := append(append([]byte{}, prefix...), 0xFF)
	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		more, err := fn(it.Item())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func (s *BadgerStore) UpsertNode(ctx context.Context, node telemetry.Node) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, idKey(nodePrefix, node.ID), node)
	})
}

func (s *BadgerStore) ListNodes(ctx context.Context, limit int) ([]telemetry.Node, error) {
	var nodes []telemetry.Node
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = nodePrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var n telemetry.Node
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			nodes = append(nodes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNodes(nodes)
	return truncate(nodes, limit), nil
}

func (s *BadgerStore) InsertAlert(ctx context.Context, alert telemetry.Alert) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := setJSON(txn, idKey(alertPrefix, alert.ID), alert); err != nil {
			return err
		}
		if alert.Resolved {
			return nil
		}
		return txn.Set(timeKey(openPrefix, alert.Timestamp, alert.ID), []byte{})
	})
}

func (s *BadgerStore) UnresolvedAlerts(ctx context.Context, limit int) ([]telemetry.Alert, error) {
	var alerts []telemetry.Alert
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanReverse(txn, openPrefix, true, func(item *badger.Item) (bool, error) {
			key := item.Key()
			id := key[bytes.LastIndexByte(key, '/')+1:]
			var a telemetry.Alert
			if err := getJSON(txn, idKey(alertPrefix, string(id)), &a); err != nil {
				return false, fmt.Errorf("load alert %s: %w", id, err)
			}
			alerts = append(alerts, a)
			return limit <= 0 || len(alerts) < limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *BadgerStore) ResolveAlert(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		var a telemetry.Alert
		err := getJSON(txn, idKey(alertPrefix, id), &a)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if a.Resolved {
			return nil
		}
		a.Resolved = true
		if err := setJSON(txn, idKey(alertPrefix, id), a); err != nil {
			return err
		}
		return txn.Delete(timeKey(openPrefix, a.Timestamp, a.ID))
	})
}

func (s *BadgerStore) InsertChat(ctx context.Context, chat telemetry.ChatExchange) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, timeKey(chatPrefix, chat.Timestamp, chat.ID), chat)
	})
}

func (s *BadgerStore) ChatHistory(ctx context.Context, limit int) ([]telemetry.ChatExchange, error) {
	var chats []telemetry.ChatExchange
	err := s.view(ctx, func(txn *badger.Txn) error {
		return scanReverse(txn, chatPrefix, false, func(item *badger.Item) (bool, error) {
			var c telemetry.ChatExchange
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return false, fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			chats = append(chats, c)
			return limit <= 0 || len(chats) < limit, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// Close stops background GC and closes the database.
func (s *BadgerStore) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}
