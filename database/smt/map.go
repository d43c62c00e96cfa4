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
	"errors"
	"fmt"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/database/smt/witness"
)

// ErrInvalidConfig is returned when creating a map from an invalid
// configuration.
var ErrInvalidConfig = errors.New("invalid map configuration")

// Config defines the shape of a map. Two maps can only be compared by their
// roots if they share the same configuration.
type Config struct {
	Scheme string // name of the hash scheme, see hash.Names()
	Depth  int    // number of key bits used as the index of a leaf
}

// DefaultConfig uses the full width of keys and the circuit-friendly MiMC
// scheme.
var DefaultConfig = Config{
	Scheme: hash.MiMCName,
	Depth:  witness.MaxDepth,
}

// Validate checks that the configuration describes a supported map.
func (c Config) Validate() error {
	if c.Depth < 1 || c.Depth > witness.MaxDepth {
		return fmt.Errorf("%w: depth %d not in [1,%d]", ErrInvalidConfig, c.Depth, witness.MaxDepth)
	}
	if _, err := hash.ByName(c.Scheme); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Map is a sparse commitment map assigning an amount to every key of the
// 2^Depth wide index space. Keys never set hold the zero value. The map is
// summarized by a single root commitment and can produce a witness for any
// key in time proportional to its depth, independent of its population.
//
// Internally, the map is a binary trie in which empty subtrees are not
// materialized and subtrees holding a single populated key are compressed
// into a leaf. Commitments are computed lazily and cached in the nodes.
//
// A Map is not thread safe. Concurrent accesses need to be synchronized by
// the caller.
type Map struct {
	config Config
	scheme *scheme
	root   node
	size   int

	// Fields below are only used if the map is backed by a store.
	store Store
	dirty map[common.Key]struct{}
}

// New creates an empty in-memory map.
func New(config Config) (*Map, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	hasher, err := hash.ByName(config.Scheme)
	if err != nil {
		return nil, err
	}
	return &Map{
		config: config,
		scheme: newScheme(hasher),
	}, nil
}

// Config returns the configuration this map was created with.
func (m *Map) Config() Config {
	return m.config
}

// Hasher returns the hash scheme used by this map.
func (m *Map) Hasher() hash.Hasher {
	return m.scheme.hasher
}

// Len returns the number of keys holding a non-zero value.
func (m *Map) Len() int {
	return m.size
}

// Root returns the commitment summarizing the full content of the map.
func (m *Map) Root() common.Hash {
	return commitOf(m.scheme, m.root, m.config.Depth)
}

// Get returns the value stored for the given key.
func (m *Map) Get(key common.Key) amount.Amount {
	if m.root == nil {
		return amount.Amount{}
	}
	return m.root.get(key.Mask(m.config.Depth), m.config.Depth)
}

// Set updates the value stored for the given key. Setting the zero value
// removes the key from the map.
func (m *Map) Set(key common.Key, value amount.Amount) {
	key = key.Mask(m.config.Depth)
	before := m.Get(key)
	if before == value {
		return
	}
	switch {
	case before.IsZero():
		m.size++
	case value.IsZero():
		m.size--
	}

	if m.root == nil {
		m.root = &leaf{key: key}
	}
	m.root = m.root.set(m.scheme, key, m.config.Depth, value)

	if m.store != nil {
		m.dirty[key] = struct{}{}
	}
}

// Witness produces a membership proof for the given key, valid for the
// current root of the map.
func (m *Map) Witness(key common.Key) witness.Witness {
	key = key.Mask(m.config.Depth)
	res := witness.Witness{
		Path:     key,
		Siblings: make([]common.Hash, m.config.Depth),
	}
	if m.root == nil {
		copy(res.Siblings, m.scheme.empty)
		return res
	}
	m.root.witness(m.scheme, key, m.config.Depth, res.Siblings)
	return res
}

// Visit calls the visitor for every key holding a non-zero value in
// ascending order of the keys. Iteration stops at the first error, which is
// returned. The map must not be modified by the visitor.
func (m *Map) Visit(visitor func(key common.Key, value amount.Amount) error) error {
	if m.root == nil {
		return nil
	}
	return m.root.visit(visitor)
}
