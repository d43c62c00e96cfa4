// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package witness

import (
	"slices"
	"sync"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/hash"
)

// MaxDepth is the maximum depth of a tree, and thus the maximum number of
// siblings in a witness. Keys are 256-bit wide.
const MaxDepth = 256

// Witness is a membership proof for a single key of a sparse commitment map.
// It lists the sibling digests along the path from the key's leaf to the
// root. A witness is not bound to a value: the same witness recomputes the
// root of the map for any hypothetical value at the key, which allows one
// witness to verify both the old and the new root of an update.
type Witness struct {
	// Path is the index of the leaf, i.e. the key masked to the depth of the
	// tree. Bit l decides whether the running digest is the left (0) or the
	// right (1) input at level l.
	Path common.Key
	// Siblings holds one digest per level, ordered from the leaf level (0) up
	// to the level just below the root.
	Siblings []common.Hash
}

// Depth returns the depth of the tree the witness was produced for.
func (w Witness) Depth() int {
	return len(w.Siblings)
}

// Matches reports whether the witness describes the path of the given key.
func (w Witness) Matches(key common.Key) bool {
	return PathOf(key, w.Depth()) == w.Path
}

// Root recomputes the root using the witness' own path and the given value at
// its leaf.
func (w Witness) Root(hasher hash.Hasher, value amount.Amount) common.Hash {
	return RecomputeRoot(hasher, w.Path, value, w)
}

// Clone creates an independent copy of the witness.
func (w Witness) Clone() Witness {
	return Witness{Path: w.Path, Siblings: slices.Clone(w.Siblings)}
}

// PathOf returns the leaf index of a key in a tree of the given depth.
func PathOf(key common.Key, depth int) common.Key {
	return key.Mask(depth)
}

// RecomputeRoot computes the root of a map in which the given key holds the
// given value and all other leaves are summarized by the witness' siblings.
// The path is taken from the key; the witness' own path is ignored. Swapping
// siblings or using the witness of another key silently yields a different
// root, which is what makes a mismatch detectable.
func RecomputeRoot(hasher hash.Hasher, key common.Key, value amount.Amount, w Witness) common.Hash {
	return Fold(hasher, key, 0, hasher.Leaf(value), w.Siblings)
}

// Fold combines the digest of the node at the given level on the path of key
// with the given siblings, one level at a time, starting at level from.
func Fold(hasher hash.Hasher, key common.Key, from int, digest common.Hash, siblings []common.Hash) common.Hash {
	for i, sibling := range siblings {
		if key.Bit(from+i) == 0 {
			digest = hasher.Node(digest, sibling)
		} else {
			digest = hasher.Node(sibling, digest)
		}
	}
	return digest
}

// Defaults returns the digests of empty subtrees for the given scheme. The
// entry at index l is the digest of a subtree of height l in which all leaves
// hold the zero value; index 0 is the digest of an empty leaf. The result has
// MaxDepth+1 entries and must not be modified.
func Defaults(hasher hash.Hasher) []common.Hash {
	if cached, found := defaults.Load(hasher.Name()); found {
		return cached.([]common.Hash)
	}
	res := make([]common.Hash, MaxDepth+1)
	res[0] = hasher.Leaf(amount.Amount{})
	for i := 1; i <= MaxDepth; i++ {
		res[i] = hasher.Node(res[i-1], res[i-1])
	}
	cached, _ := defaults.LoadOrStore(hasher.Name(), res)
	return cached.([]common.Hash)
}

// defaults caches the empty subtree digests per scheme name.
var defaults sync.Map

// EmptyRoot returns the root of a map of the given depth in which every key
// holds the zero value.
func EmptyRoot(hasher hash.Hasher, depth int) common.Hash {
	return Defaults(hasher)[depth]
}
