package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ugorji/go/codec"
)

const keyPrefix = "idem/"

var errKeyMissing = errors.New("key missing")

// kv is the minimal key-value surface a durable guard needs.
type kv interface {
	get(key []byte) ([]byte, error)
	put(key, value []byte) error
	delete(key []byte) error
	close() error
}

// Durable persists records as msgpack under idem/<key>. Reservations are
// serialized within the process; the store is not meant to be shared by
// several processes.
type Durable struct {
	mu     sync.Mutex
	store  kv
	handle codec.MsgpackHandle
	closed bool
}

func newDurable(store kv) *Durable {
	d := &Durable{store: store}
	d.handle.WriteExt = true
	return d
}

func (d *Durable) Reserve(_ context.Context, key string, rec Record) error {
	rec, err := prepare(key, rec)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	existing, err := d.read(key)
	switch {
	case err == nil:
		return &ConflictError{Existing: *existing}
	case !errors.Is(err, ErrNotFound):
		return err
	}
	return d.write(key, rec)
}

func (d *Durable) Complete(_ context.Context, key string, rec Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if existing, err := d.read(key); err == nil && rec.ReservedAt.IsZero() {
		rec.ReservedAt = existing.ReservedAt
	}
	rec.Key = key
	rec.State = StateCompleted
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	return d.write(key, rec)
}

func (d *Durable) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.store.delete([]byte(keyPrefix + key)); err != nil {
		return fmt.Errorf("releasing %q: %w", key, err)
	}
	return nil
}

func (d *Durable) Lookup(_ context.Context, key string) (*Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return d.read(key)
}

func (d *Durable) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.store.close()
}

func (d *Durable) read(key string) (*Record, error) {
	data, err := d.store.get([]byte(keyPrefix + key))
	if errors.Is(err, errKeyMissing) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}
	var rec Record
	if err := codec.NewDecoderBytes(data, &d.handle).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}
	return &rec, nil
}

func (d *Durable) write(key string, rec Record) error {
	var data []byte
	if err := codec.NewEncoderBytes(&data, &d.handle).Encode(rec); err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	if err := d.store.put([]byte(keyPrefix+key), data); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}
