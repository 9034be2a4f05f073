// Package idempotency guards submissions with caller supplied keys so a
// key is submitted at most once.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAlreadyReserved is returned by Reserve when the key is in use.
	ErrAlreadyReserved = errors.New("idempotency key already reserved")

	// ErrNotFound is returned by Lookup for unknown keys.
	ErrNotFound = errors.New("idempotency key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("idempotency store is closed")
)

// State is the lifecycle of a key.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)

// Record is what a guard remembers about a key.
type Record struct {
	Key         string    `json:"key" codec:"key"`
	State       State     `json:"state" codec:"state"`
	TxType      string    `json:"txType,omitempty" codec:"tx_type"`
	Account     string    `json:"account,omitempty" codec:"account"`
	Hash        string    `json:"hash,omitempty" codec:"hash"`
	ResultCode  string    `json:"resultCode,omitempty" codec:"result_code"`
	ReservedAt  time.Time `json:"reservedAt" codec:"reserved_at"`
	CompletedAt time.Time `json:"completedAt,omitzero" codec:"completed_at"`
}

// ConflictError is returned by Reserve with the record already held for
// the key.
type ConflictError struct {
	Existing Record
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("idempotency key %q already %s", e.Existing.Key, e.Existing.State)
}

func (e *ConflictError) Is(target error) bool { return target == ErrAlreadyReserved }

// Guard is an at-most-once reservation table.
type Guard interface {
	// Reserve claims key. It fails with *ConflictError when the key is
	// pending or completed.
	Reserve(ctx context.Context, key string, rec Record) error
	// Complete marks key as done with the final record.
	Complete(ctx context.Context, key string, rec Record) error
	// Release frees a reservation that never reached the node.
	Release(ctx context.Context, key string) error
	Lookup(ctx context.Context, key string) (*Record, error)
	Close() error
}

// Backend names a guard implementation.
type Backend string

const (
	BackendNone    Backend = "none"
	BackendMemory  Backend = "memory"
	BackendPebble  Backend = "pebble"
	BackendLevelDB Backend = "leveldb"
)

// Config selects and sizes a guard.
type Config struct {
	Backend Backend
	// Size bounds the memory backend.
	Size int
	// Path is the directory of a durable backend.
	Path string
}

// Open creates the configured guard. The none backend returns a nil Guard.
func Open(cfg Config) (Guard, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(cfg.Size)
	case BackendPebble:
		return OpenPebble(cfg.Path)
	case BackendLevelDB:
		return OpenLevelDB(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}

func prepare(key string, rec Record) (Record, error) {
	if key == "" {
		return Record{}, errors.New("idempotency key is empty")
	}
	rec.Key = key
	if rec.State == "" {
		rec.State = StatePending
	}
	if rec.ReservedAt.IsZero() {
		rec.ReservedAt = time.Now().UTC()
	}
	return rec, nil
}
