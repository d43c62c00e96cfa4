// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package smt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	// ErrConfigMismatch is returned when opening a store with a configuration
	// other than the one it was created with.
	ErrConfigMismatch = errors.New("stored map has different configuration")
	// ErrCorrupted is returned when the content of a store or stream does
	// not reproduce its recorded root.
	ErrCorrupted = errors.New("map data corrupted")
)

// Meta is the metadata recorded next to the leaves of a persisted map.
type Meta struct {
	Config Config
	Root   common.Hash
}

// Store persists the populated leaves of a map.
type Store interface {
	// Meta returns the recorded metadata, if any.
	Meta() (meta Meta, found bool, err error)
	// ForEach calls the visitor for every stored leaf.
	ForEach(visitor func(common.Key, amount.Amount) error) error
	// Write atomically updates the given leaves and the metadata. Leaves
	// with a zero value are removed.
	Write(meta Meta, leaves map[common.Key]amount.Amount) error
	// Close releases the resources of the store.
	Close() error
}

// Open loads a map from the given store. If the store is empty, an empty map
// with the given configuration is created. Otherwise the recorded
// configuration has to match and the loaded leaves have to reproduce the
// recorded root. The resulting map keeps the store and writes modifications
// on Flush and Close.
func Open(store Store, config Config) (*Map, error) {
	res, err := New(config)
	if err != nil {
		return nil, err
	}
	meta, found, err := store.Meta()
	if err != nil {
		return nil, fmt.Errorf("failed to read map metadata: %w", err)
	}
	if found && meta.Config != config {
		return nil, fmt.Errorf("%w: stored %+v, requested %+v", ErrConfigMismatch, meta.Config, config)
	}
	err = store.ForEach(func(key common.Key, value amount.Amount) error {
		res.Set(key, value)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaves: %w", err)
	}
	if found && res.Root() != meta.Root {
		return nil, fmt.Errorf("%w: leaves produce root %v, recorded root is %v", ErrCorrupted, res.Root(), meta.Root)
	}
	res.store = store
	res.dirty = map[common.Key]struct{}{}
	return res, nil
}

// Flush writes all modifications since the last flush to the backing store.
// It is a no-op for maps not backed by a store.
func (m *Map) Flush() error {
	if m.store == nil {
		return nil
	}
	leaves := make(map[common.Key]amount.Amount, len(m.dirty))
	for key := range m.dirty {
		leaves[key] = m.Get(key)
	}
	if err := m.store.Write(Meta{Config: m.config, Root: m.Root()}, leaves); err != nil {
		return fmt.Errorf("failed to flush map: %w", err)
	}
	clear(m.dirty)
	return nil
}

// Close flushes the map and closes its backing store.
func (m *Map) Close() error {
	if m.store == nil {
		return nil
	}
	return errors.Join(m.Flush(), m.store.Close())
}

// ---- LevelDB store ----

var (
	metaKey    = []byte("m")
	leafPrefix = []byte("l")
)

// LevelDBStore is a Store keeping leaves in a LevelDB instance.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates a LevelDB store in the given directory.
func OpenLevelDB(directory string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(directory, &opt.Options{
		Filter: filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB instance: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Meta() (Meta, bool, error) {
	data, err := s.db.Get(metaKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, err
	}
	meta, err := decodeMeta(data)
	if err != nil {
		return Meta{}, false, err
	}
	return meta, true, nil
}

func (s *LevelDBStore) ForEach(visitor func(common.Key, amount.Amount) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(leafPrefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()[len(leafPrefix):]
		if len(key) != len(common.Key{}) {
			return fmt.Errorf("%w: invalid leaf key length %d", ErrCorrupted, len(key))
		}
		if err := visitor(common.Key(key), amount.NewFromBytes(iter.Value()...)); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *LevelDBStore) Write(meta Meta, leaves map[common.Key]amount.Amount) error {
	batch := new(leveldb.Batch)
	for _, key := range slices.SortedFunc(maps.Keys(leaves), compareKeys) {
		dbKey := append(slices.Clone(leafPrefix), key[:]...)
		if value := leaves[key]; value.IsZero() {
			batch.Delete(dbKey)
		} else {
			data := value.Bytes32()
			batch.Put(dbKey, data[:])
		}
	}
	batch.Put(metaKey, encodeMeta(meta))
	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func compareKeys(a, b common.Key) int {
	return slices.Compare(a[:], b[:])
}

// encodeMeta produces depth (2 bytes) | root (32 bytes) | scheme name.
func encodeMeta(meta Meta) []byte {
	res := binary.BigEndian.AppendUint16(nil, uint16(meta.Config.Depth))
	res = append(res, meta.Root[:]...)
	return append(res, meta.Config.Scheme...)
}

func decodeMeta(data []byte) (Meta, error) {
	if len(data) < 2+len(common.Hash{}) {
		return Meta{}, fmt.Errorf("%w: metadata too short", ErrCorrupted)
	}
	return Meta{
		Config: Config{
			Depth:  int(binary.BigEndian.Uint16(data)),
			Scheme: string(data[2+len(common.Hash{}):]),
		},
		Root: common.Hash(data[2 : 2+len(common.Hash{})]),
	}, nil
}
