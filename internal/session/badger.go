package session

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

const badgerPrefix = "session:"

// Badger keeps sessions in a local badger database. Keys are "session:<id>:<slot>".
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a database under dir.
func OpenBadger(dir string) (*Badger, error) {
	if dir == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return openBadger(badger.DefaultOptions(dir))
}

func openBadger(opts badger.Options) (*Badger, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func badgerKey(sessionID, slot string) []byte {
	return []byte(badgerPrefix + sessionID + ":" + slot)
}

func (b *Badger) Get(ctx context.Context, sessionID, slot string) ([]byte, error) {
	if err := checkKey(sessionID, slot); err != nil {
		return nil, err
	}
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(sessionID, slot))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return out, nil
}

func (b *Badger) Set(ctx context.Context, sessionID, slot string, value []byte) error {
	if err := checkKey(sessionID, slot); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(sessionID, slot), value)
	})
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (b *Badger) Clear(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, slot := range Slots {
			if err := txn.Delete(badgerKey(sessionID, slot)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}
