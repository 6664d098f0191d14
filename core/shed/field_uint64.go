package shed

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
)

// Uint64Field provides a way to have a simple counter in the database.
// It transparently encodes uint64 type value to bytes.
type Uint64Field struct {
	db  *DB
	key []byte
}

// NewUint64Field returns a new Uint64Field stored under the given name.
func (db *DB) NewUint64Field(name string) Uint64Field {
	return Uint64Field{
		db:  db,
		key: append([]byte("field-uint64-"), name...),
	}
}

// Get retrieves a uint64 value from the database. If the value is not
// found in the database a 0 value is returned and no error.
func (f Uint64Field) Get() (val uint64, err error) {
	b, err := f.db.Get(f.key)
	if err != nil {
		if err == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Put encodes uint64 value and stores it in the database.
func (f Uint64Field) Put(val uint64) (err error) {
	return f.db.Put(f.key, encodeUint64(val))
}

// PutInBatch stores a uint64 value in a batch that can be saved later
// in the database.
func (f Uint64Field) PutInBatch(batch *leveldb.Batch, val uint64) {
	batch.Put(f.key, encodeUint64(val))
}

// Inc increments a uint64 value in the database.
// This operation is not goroutine safe.
func (f Uint64Field) Inc() (val uint64, err error) {
	val, err = f.Get()
	if err != nil {
		return 0, err
	}
	val++
	return val, f.Put(val)
}

// IncInBatch increments a uint64 value in the batch by retrieving a
// value from the database, not the same batch.
// This operation is not goroutine safe.
func (f Uint64Field) IncInBatch(batch *leveldb.Batch) (val uint64, err error) {
	val, err = f.Get()
	if err != nil {
		return 0, err
	}
	val++
	f.PutInBatch(batch, val)
	return val, nil
}

func encodeUint64(val uint64) (b []byte) {
	b = make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}
