// Package journal records every finished submission attempt in a SQL
// database, SQLite or PostgreSQL.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

var (
	ErrClosed        = errors.New("journal is closed")
	ErrInvalidDriver = errors.New("invalid journal driver")
	ErrMissingDSN    = errors.New("journal dsn is required")
)

// Driver is a database/sql driver name.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config locates the journal database.
type Config struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
	Timeout      time.Duration
}

func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Driver)
	}
	if c.DSN == "" {
		return ErrMissingDSN
	}
	return nil
}

// Entry is one submission attempt.
type Entry struct {
	ID             int64
	IdempotencyKey string
	TxType         string
	Account        string
	Hash           string
	Sequence       uint32
	LedgerIndex    uint32
	ResultCode     string
	Success        bool
	Validated      bool
	Attempt        int
	// Error holds the failure of an attempt that produced no outcome.
	Error string
	// Meta is the transaction metadata as JSON, stored compressed.
	Meta       json.RawMessage
	RecordedAt time.Time
}

// Store is a SQL backed journal.
type Store struct {
	db      *sql.DB
	driver  Driver
	timeout time.Duration
}

// Open connects to the database and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	db, err := sql.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer at a time.
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &Store{db: db, driver: cfg.Driver, timeout: cfg.Timeout}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging journal: %w", err)
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	blob := "BLOB"
	if s.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
		blob = "BYTEA"
	}
	queries := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id ` + id + `,
			idempotency_key TEXT NOT NULL DEFAULT '',
			tx_type TEXT NOT NULL,
			account TEXT NOT NULL,
			hash TEXT NOT NULL DEFAULT '',
			sequence BIGINT NOT NULL,
			ledger_index BIGINT NOT NULL DEFAULT 0,
			result_code TEXT NOT NULL DEFAULT '',
			success BOOLEAN NOT NULL DEFAULT FALSE,
			validated BOOLEAN NOT NULL DEFAULT FALSE,
			attempt INTEGER NOT NULL DEFAULT 1,
			error TEXT NOT NULL DEFAULT '',
			meta ` + blob + `,
			recorded_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_account ON submissions(account, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_hash ON submissions(hash)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("executing schema query: %w", err)
		}
	}
	return nil
}

// Record appends e. RecordedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s.db == nil {
		return ErrClosed
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO submissions
		(idempotency_key, tx_type, account, hash, sequence, ledger_index, result_code,
		 success, validated, attempt, error, meta, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.IdempotencyKey, e.TxType, e.Account, e.Hash, int64(e.Sequence), int64(e.LedgerIndex), e.ResultCode,
		e.Success, e.Validated, e.Attempt, e.Error, compress(e.Meta), e.RecordedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording %s for %s: %w", e.TxType, e.Account, err)
	}
	return nil
}

// List returns the newest entries of account, at most limit. A limit of
// zero or less means 50.
func (s *Store) List(ctx context.Context, account string, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, idempotency_key, tx_type, account, hash, sequence, ledger_index, result_code,
		success, validated, attempt, error, meta, recorded_at
		FROM submissions WHERE account = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`),
		account, limit)
	if err != nil {
		return nil, fmt.Errorf("listing submissions of %s: %w", account, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e             Entry
			seq, ledger   int64
			meta          []byte
			recordedNanos int64
		)
		if err := rows.Scan(&e.ID, &e.IdempotencyKey, &e.TxType, &e.Account, &e.Hash, &seq, &ledger,
			&e.ResultCode, &e.Success, &e.Validated, &e.Attempt, &e.Error, &meta, &recordedNanos); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		e.Sequence = uint32(seq)
		e.LedgerIndex = uint32(ledger)
		e.RecordedAt = time.Unix(0, recordedNanos)
		if e.Meta, err = decompress(meta); err != nil {
			return nil, fmt.Errorf("submission %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// rebind rewrites ? placeholders into the driver's form.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
