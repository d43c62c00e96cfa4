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
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"golang.org/x/crypto/sha3"
)

// KeccakName is the name of the Keccak-256 hash scheme.
const KeccakName = "keccak256"

const (
	keccakLeafPrefix = 0x00
	keccakNodePrefix = 0x01
)

// Keccak returns a hash scheme based on the legacy Keccak-256 function used
// by Ethereum. Leaves and inner nodes are separated by a one-byte prefix.
//
//	leaf = Keccak(0x00 || value)    value as 32 bytes big-endian
//	node = Keccak(0x01 || left || right)
//	key  = Keccak(address)
//
// There is no proof backend for this scheme other than re-execution.
func Keccak() Hasher {
	return keccakHasher{}
}

type keccakHasher struct{}

func (keccakHasher) Name() string {
	return KeccakName
}

func (keccakHasher) Leaf(value amount.Amount) common.Hash {
	b := value.Bytes32()
	return keccak([]byte{keccakLeafPrefix}, b[:])
}

func (keccakHasher) Node(left, right common.Hash) common.Hash {
	return keccak([]byte{keccakNodePrefix}, left[:], right[:])
}

func (keccakHasher) AccountKey(address common.Address) common.Key {
	return common.Key(keccak(address[:]))
}

func (keccakHasher) IsCanonical(common.Hash) bool {
	return true
}

func keccak(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var res common.Hash
	h.Sum(res[:0])
	return res
}
