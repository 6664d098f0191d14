// Package diskstore implements the storage.Storer contract on top of
// LevelDB through the shed wrapper. One record per object holds the
// metadata and canonical bytes together, and every mutation goes
// through a single write batch so a crash cannot tear an object apart
// from its metadata.
package diskstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/shed"
	"github.com/lodeworks/mooring/core/storage"
)

var keyPrefix = []byte("o-")

// record layout: kind(1) author(32) seq(8) data
const recordHeaderSize = 1 + mooring.AddressSize + 8

// Store is a LevelDB-backed storage.Storer.
type Store struct {
	db      *shed.DB
	seq     shed.Uint64Field
	metrics metrics
	logger  logging.Logger
}

// New opens or creates a disk store at path.
func New(path string, logger logging.Logger) (*Store, error) {
	db, err := shed.NewDB(path, logger)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &Store{
		db:      db,
		seq:     db.NewUint64Field("arrival-seq"),
		metrics: newMetrics(),
		logger:  logger,
	}, nil
}

func key(addr mooring.Address) []byte {
	return append(keyPrefix, addr.Bytes()...)
}

func encodeRecord(item *storage.Item) []byte {
	b := make([]byte, 0, recordHeaderSize+len(item.Data))
	b = append(b, byte(item.Kind))
	b = append(b, item.Author.Bytes()...)
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, item.Seq)
	b = append(b, seq...)
	return append(b, item.Data...)
}

func decodeRecord(addr mooring.Address, b []byte) (*storage.Item, error) {
	if len(b) < recordHeaderSize {
		return nil, fmt.Errorf("diskstore: malformed record for %s", addr)
	}
	seq := binary.BigEndian.Uint64(b[1+mooring.AddressSize : recordHeaderSize])
	return &storage.Item{
		Address: addr,
		Kind:    mooring.Kind(b[0]),
		Author:  mooring.NewAddress(b[1 : 1+mooring.AddressSize]),
		Seq:     seq,
		Data:    b[recordHeaderSize:],
	}, nil
}

func (s *Store) Get(_ context.Context, addr mooring.Address) (*storage.Item, error) {
	b, err := s.db.Get(key(addr))
	if err != nil {
		if err == shed.ErrNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return decodeRecord(addr, b)
}

func (s *Store) Has(_ context.Context, addr mooring.Address) (bool, error) {
	return s.db.Has(key(addr))
}

func (s *Store) Put(_ context.Context, item *storage.Item) error {
	existing, err := s.db.Get(key(item.Address))
	if err != nil && err != shed.ErrNotFound {
		return err
	}
	if err == nil {
		prev, err := decodeRecord(item.Address, existing)
		if err != nil {
			return err
		}
		if !bytes.Equal(prev.Data, item.Data) {
			return storage.ErrConflict
		}
		item.Seq = prev.Seq
		return nil
	}

	batch := new(leveldb.Batch)
	seq, err := s.seq.IncInBatch(batch)
	if err != nil {
		return err
	}
	item.Seq = seq
	batch.Put(key(item.Address), encodeRecord(item))
	if err := s.db.WriteBatch(batch); err != nil {
		return err
	}
	s.metrics.PutCounter.Inc()
	return nil
}

func (s *Store) Delete(_ context.Context, addr mooring.Address) error {
	has, err := s.db.Has(key(addr))
	if err != nil {
		return err
	}
	if !has {
		return storage.ErrNotFound
	}
	if err := s.db.Delete(key(addr)); err != nil {
		return err
	}
	s.metrics.DeleteCounter.Inc()
	return nil
}

func (s *Store) Iterate(ctx context.Context, fn func(*storage.Item) (bool, error)) error {
	it := s.db.NewIterator(keyPrefix)
	defer it.Release()

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		addr := mooring.NewAddress(append([]byte{}, it.Key()[len(keyPrefix):]...))
		value := append([]byte{}, it.Value()...)
		item, err := decodeRecord(addr, value)
		if err != nil {
			return err
		}
		stop, err := fn(item)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return it.Error()
}

func (s *Store) Close() error {
	return s.db.Close()
}
