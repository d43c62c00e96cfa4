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
	"sync"

	"github.com/crate-crypto/go-ipa/banderwagon"
	"github.com/crate-crypto/go-ipa/ipa"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
)

// PedersenName is the name of the Pedersen hash scheme.
const PedersenName = "pedersen"

// pedersenVectorSize is the size of the vectors committed to. It is fixed by
// the IPA settings used for the Banderwagon curve.
const pedersenVectorSize = 256

// Pedersen returns a hash scheme using Pedersen vector commitments on the
// Banderwagon curve as a hash function, the way Verkle tries derive keys. The
// first vector element is a tag separating leaves, nodes, and keys. Digests
// are the commitment points mapped to the scalar field, big-endian encoded.
//
//	leaf = C([1, lo, hi])
//	node = C([2, left, right])
//	key  = C([3, address])
//
// For background on the Pedersen commitment scheme, see:
// https://rareskills.io/post/pedersen-commitment
func Pedersen() Hasher {
	return pedersenHasher{}
}

type pedersenHasher struct{}

func (pedersenHasher) Name() string {
	return PedersenName
}

func (pedersenHasher) Leaf(value amount.Amount) common.Hash {
	lo, hi := value.Limbs()
	return pedersenHash(1, scalarOf(lo[:]), scalarOf(hi[:]))
}

func (pedersenHasher) Node(left, right common.Hash) common.Hash {
	return pedersenHash(2, scalarOf(left[:]), scalarOf(right[:]))
}

func (pedersenHasher) AccountKey(address common.Address) common.Key {
	return common.Key(pedersenHash(3, scalarOf(address[:])))
}

// IsCanonical checks that the digest is a reduced scalar. Not all 32-byte
// strings are, since the scalar field is slightly smaller than 2^253.
func (pedersenHasher) IsCanonical(digest common.Hash) bool {
	scalar := scalarOf(digest[:])
	return scalar.Bytes() == [32]byte(digest)
}

func scalarOf(data []byte) banderwagon.Fr {
	var res banderwagon.Fr
	res.SetBytes(data)
	return res
}

func pedersenHash(tag uint64, values ...banderwagon.Fr) common.Hash {
	elements := make([]banderwagon.Fr, pedersenVectorSize)
	elements[0].SetUint64(tag)
	copy(elements[1:], values)
	point := ipaConfig().Commit(elements)

	var scalar banderwagon.Fr
	point.MapToScalarField(&scalar)
	return common.Hash(scalar.Bytes())
}

// ipaConfig holds the generator points of the Banderwagon curve used for the
// commitments. Its set-up is expensive, so it is only done on first use.
var ipaConfig = sync.OnceValue(func() *ipa.IPAConfig {
	conf, err := ipa.NewIPASettings()
	if err != nil {
		panic("failed to create IPA settings: " + err.Error())
	}
	return conf
})
