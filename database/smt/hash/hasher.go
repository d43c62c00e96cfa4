// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hash

import (
	"fmt"
	"sort"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
)

// Hasher defines the hash scheme of a sparse commitment map. All parties
// sharing a root must use the same scheme, since the root is only comparable
// within one scheme.
type Hasher interface {
	// Name is the unique identifier of the scheme. It is recorded in
	// persisted maps and exported streams.
	Name() string

	// Leaf computes the digest of a leaf holding the given value. The digest
	// of the zero value is the digest of every absent key.
	Leaf(value amount.Amount) common.Hash

	// Node computes the digest of an inner node from the digests of its left
	// and right child. The function is order sensitive.
	Node(left, right common.Hash) common.Hash

	// AccountKey derives the key under which the balance of the given
	// account is stored.
	AccountKey(address common.Address) common.Key

	// IsCanonical reports whether the given bytes are a digest this scheme
	// can produce. Digests received from untrusted sources should be checked.
	IsCanonical(digest common.Hash) bool
}

var schemes = map[string]func() Hasher{
	MiMCName:     func() Hasher { return MiMC() },
	KeccakName:   func() Hasher { return Keccak() },
	PedersenName: func() Hasher { return Pedersen() },
}

// ByName returns the hasher registered for the given scheme name.
func ByName(name string) (Hasher, error) {
	factory, found := schemes[name]
	if !found {
		return nil, fmt.Errorf("unknown hash scheme %q, supported: %v", name, Names())
	}
	return factory(), nil
}

// Names lists the names of all supported schemes in lexicographical order.
func Names() []string {
	res := make([]string, 0, len(schemes))
	for name := range schemes {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
