package idempotency

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type levelKV struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a LevelDB backed guard in dir.
func OpenLevelDB(dir string) (*Durable, error) {
	if dir == "" {
		return nil, errors.New("leveldb idempotency store needs a path")
	}
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb at %s: %w", dir, err)
	}
	return newDurable(&levelKV{db: db}), nil
}

func (l *levelKV) get(key []byte) ([]byte, error) {
	data, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, errKeyMissing
	}
	return data, err
}

func (l *levelKV) put(key, value []byte) error {
	return l.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

func (l *levelKV) delete(key []byte) error {
	return l.db.Delete(key, &opt.WriteOptions{Sync: true})
}

func (l *levelKV) close() error {
	return l.db.Close()
}
