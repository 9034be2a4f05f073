package idempotency

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

type pebbleKV struct {
	db *pebble.DB
}

// OpenPebble opens or creates a Pebble backed guard in dir.
func OpenPebble(dir string) (*Durable, error) {
	if dir == "" {
		return nil, errors.New("pebble idempotency store needs a path")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening pebble at %s: %w", dir, err)
	}
	return newDurable(&pebbleKV{db: db}), nil
}

func (p *pebbleKV) get(key []byte) ([]byte, error) {
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errKeyMissing
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (p *pebbleKV) put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *pebbleKV) delete(key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *pebbleKV) close() error {
	return p.db.Close()
}
