// Package shed provides abstractions over LevelDB used by the durable
// object store: a thin DB wrapper with metrics and logging, and typed
// field helpers for persisted counters.
package shed

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/lodeworks/mooring/core/logging"
)

const (
	openFileLimit = 128 // The limit for LevelDB OpenFilesCacheCapacity.
)

// ErrNotFound is returned by Get on absent keys.
var ErrNotFound = errors.New("shed: not found")

// DB wraps LevelDB with metrics counters and logging.
type DB struct {
	ldb     *leveldb.DB
	metrics metrics
	logger  logging.Logger
}

// NewDB opens a LevelDB database at path.
func NewDB(path string, logger logging.Logger) (db *DB, err error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: openFileLimit,
	})
	if err != nil {
		return nil, err
	}
	return &DB{
		ldb:     ldb,
		metrics: newMetrics(),
		logger:  logger,
	}, nil
}

// Put wraps LevelDB Put method to increment metrics counter.
func (db *DB) Put(key []byte, value []byte) (err error) {
	err = db.ldb.Put(key, value, nil)
	if err != nil {
		db.metrics.PutFailCounter.Inc()
		return err
	}
	db.metrics.PutCounter.Inc()
	return nil
}

// Get wraps LevelDB Get method to increment metrics counter.
func (db *DB) Get(key []byte) (value []byte, err error) {
	value, err = db.ldb.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			db.metrics.GetNotFoundCounter.Inc()
			return nil, ErrNotFound
		}
		db.metrics.GetFailCounter.Inc()
		return nil, err
	}
	db.metrics.GetCounter.Inc()
	return value, nil
}

// Has wraps LevelDB Has method to increment metrics counter.
func (db *DB) Has(key []byte) (yes bool, err error) {
	yes, err = db.ldb.Has(key, nil)
	if err != nil {
		db.metrics.HasFailCounter.Inc()
		return false, err
	}
	db.metrics.HasCounter.Inc()
	return yes, nil
}

// Delete wraps LevelDB Delete method to increment metrics counter.
func (db *DB) Delete(key []byte) (err error) {
	err = db.ldb.Delete(key, nil)
	if err != nil {
		db.metrics.DeleteFailCounter.Inc()
		return err
	}
	db.metrics.DeleteCounter.Inc()
	return nil
}

// NewIterator returns an iterator over keys with the given prefix.
func (db *DB) NewIterator(prefix []byte) iterator.Iterator {
	db.metrics.IteratorCounter.Inc()
	return db.ldb.NewIterator(util.BytesPrefix(prefix), nil)
}

// WriteBatch applies a LevelDB batch atomically.
func (db *DB) WriteBatch(batch *leveldb.Batch) (err error) {
	err = db.ldb.Write(batch, nil)
	if err != nil {
		db.metrics.WriteBatchFailCounter.Inc()
		return err
	}
	db.metrics.WriteBatchCounter.Inc()
	return nil
}

// Close closes the underlying LevelDB database.
func (db *DB) Close() (err error) {
	return db.ldb.Close()
}
