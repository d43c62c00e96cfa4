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
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/database/smt/witness"
)

// scheme bundles a hasher with the digests of its empty subtrees.
type scheme struct {
	hasher hash.Hasher
	empty  []common.Hash // index = height of the empty subtree
}

func newScheme(hasher hash.Hasher) *scheme {
	return &scheme{
		hasher: hasher,
		empty:  witness.Defaults(hasher),
	}
}

// ---- Nodes ----

// node is an interface for the nodes of the binary trie, which can be either
// inner or leaf nodes. The height of a node is the height of the subtree it
// represents; the root of a map of depth D has height D, an individual leaf
// position has height 0. Nodes do not know their own height, it is passed
// down by the parent. A nil node is an empty subtree.
type node interface {
	get(key common.Key, height int) amount.Amount
	set(s *scheme, key common.Key, height int, value amount.Amount) node
	commit(s *scheme, height int) common.Hash
	witness(s *scheme, key common.Key, height int, siblings []common.Hash)
	visit(func(common.Key, amount.Amount) error) error
}

// commitOf returns the commitment of a possibly empty subtree.
func commitOf(s *scheme, n node, height int) common.Hash {
	if n == nil {
		return s.empty[height]
	}
	return n.commit(s, height)
}

// ---- Inner nodes ----

// inner is a branch of the trie. The child at index b covers all keys whose
// bit at level height-1 is b. Inner nodes always have at least one inner child
// or two children; an inner node with a single leaf child is collapsed into
// that leaf.
type inner struct {
	children [2]node

	// The cached commitment of this inner node. It is only valid if the
	// commitmentClean flag is true.
	commitment      common.Hash
	commitmentClean bool
}

func (i *inner) get(key common.Key, height int) amount.Amount {
	next := i.children[key.Bit(height-1)]
	if next == nil {
		return amount.Amount{}
	}
	return next.get(key, height-1)
}

func (i *inner) set(s *scheme, key common.Key, height int, value amount.Amount) node {
	pos := key.Bit(height - 1)
	next := i.children[pos]
	if next == nil {
		if value.IsZero() {
			return i
		}
		next = &leaf{key: key}
	}
	i.children[pos] = next.set(s, key, height-1, value)
	i.commitmentClean = false

	// Collapse branches that no longer need to be split.
	left, right := i.children[0], i.children[1]
	switch {
	case left == nil && right == nil:
		return nil
	case left == nil:
		if l, ok := right.(*leaf); ok {
			return l
		}
	case right == nil:
		if l, ok := left.(*leaf); ok {
			return l
		}
	}
	return i
}

func (i *inner) commit(s *scheme, height int) common.Hash {
	if i.commitmentClean {
		return i.commitment
	}
	i.commitment = s.hasher.Node(
		commitOf(s, i.children[0], height-1),
		commitOf(s, i.children[1], height-1),
	)
	i.commitmentClean = true
	return i.commitment
}

func (i *inner) witness(s *scheme, key common.Key, height int, siblings []common.Hash) {
	pos := key.Bit(height - 1)
	siblings[height-1] = commitOf(s, i.children[1-pos], height-1)
	next := i.children[pos]
	if next == nil {
		copy(siblings[:height-1], s.empty)
		return
	}
	next.witness(s, key, height-1, siblings)
}

func (i *inner) visit(visitor func(common.Key, amount.Amount) error) error {
	for _, child := range i.children {
		if child == nil {
			continue
		}
		if err := child.visit(visitor); err != nil {
			return err
		}
	}
	return nil
}

// ---- Leaf nodes ----

// leaf is a single populated key. A leaf may be placed at any height; if it
// is placed above the bottom of the trie, it represents a subtree in which all
// other keys hold the zero value. Its commitment is the digest of its value
// folded up to its height with empty-subtree siblings.
type leaf struct {
	key   common.Key // masked to the depth of the map
	value amount.Amount

	// The cached commitment of this leaf. It is only valid if the
	// commitmentClean flag is true and the leaf is still at the height the
	// commitment was computed for.
	commitment       common.Hash
	commitmentHeight int
	commitmentClean  bool
}

func (l *leaf) get(key common.Key, _ int) amount.Amount {
	if key != l.key {
		return amount.Amount{}
	}
	return l.value
}

func (l *leaf) set(s *scheme, key common.Key, height int, value amount.Amount) node {
	if key == l.key {
		if value.IsZero() {
			return nil
		}
		l.value = value
		l.commitmentClean = false
		return l
	}
	if value.IsZero() {
		return l
	}

	// This leaf needs to be split.
	res := &inner{}
	res.children[l.key.Bit(height-1)] = l
	return res.set(s, key, height, value)
}

func (l *leaf) commit(s *scheme, height int) common.Hash {
	if l.commitmentClean && l.commitmentHeight == height {
		return l.commitment
	}
	l.commitment = l.hashAt(s, height)
	l.commitmentHeight = height
	l.commitmentClean = true
	return l.commitment
}

// hashAt computes the commitment of this leaf when placed at the given height
// without touching the cache.
func (l *leaf) hashAt(s *scheme, height int) common.Hash {
	return witness.Fold(s.hasher, l.key, 0, s.hasher.Leaf(l.value), s.empty[:height])
}

func (l *leaf) witness(s *scheme, key common.Key, height int, siblings []common.Hash) {
	copy(siblings[:height], s.empty)
	if key == l.key {
		return
	}
	// The paths of the key and this leaf diverge at the highest level at which
	// their bits differ. Below that level, the requested key is in an empty
	// subtree; at that level, its sibling is the subtree holding only this leaf.
	for level := height - 1; level >= 0; level-- {
		if key.Bit(level) != l.key.Bit(level) {
			siblings[level] = l.hashAt(s, level)
			return
		}
	}
}

func (l *leaf) visit(visitor func(common.Key, amount.Amount) error) error {
	return visitor(l.key, l.value)
}
