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
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
)

// MiMCName is the name of the MiMC hash scheme.
const MiMCName = "mimc"

// Domain separation tags prepended to leaf and key preimages. Inner nodes are
// hashed without a tag.
const (
	MiMCLeafTag = 1
	MiMCKeyTag  = 2
)

// MiMC returns the MiMC hash scheme over the BN254 scalar field. Digests are
// canonical big-endian field elements. This is the scheme supported by the
// Groth16 proof backend, whose circuit recomputes exactly these digests.
//
//	leaf = MiMC(1, lo, hi)    where lo, hi are the 128-bit limbs of the value
//	node = MiMC(left, right)
//	key  = MiMC(2, address)
func MiMC() Hasher {
	return mimcHasher{}
}

type mimcHasher struct{}

func (mimcHasher) Name() string {
	return MiMCName
}

func (mimcHasher) Leaf(value amount.Amount) common.Hash {
	lo, hi := value.Limbs()
	var l, h fr.Element
	l.SetBytes(lo[:])
	h.SetBytes(hi[:])
	return mimcSum(fr.NewElement(MiMCLeafTag), l, h)
}

func (mimcHasher) Node(left, right common.Hash) common.Hash {
	return mimcSum(ToField(left), ToField(right))
}

func (mimcHasher) AccountKey(address common.Address) common.Key {
	var a fr.Element
	a.SetBytes(address[:])
	return common.Key(mimcSum(fr.NewElement(MiMCKeyTag), a))
}

func (mimcHasher) IsCanonical(digest common.Hash) bool {
	_, err := fr.BigEndian.Element((*[fr.Bytes]byte)(&digest))
	return err == nil
}

// ToField interprets a digest as a BN254 scalar field element. Non-canonical
// inputs are reduced modulo the field order.
func ToField(digest common.Hash) fr.Element {
	var res fr.Element
	res.SetBytes(digest[:])
	return res
}

func mimcSum(inputs ...fr.Element) common.Hash {
	h := mimc.NewMiMC()
	for _, in := range inputs {
		b := in.Bytes()
		// Canonical field elements are always accepted.
		_, _ = h.Write(b[:])
	}
	var res common.Hash
	copy(res[:], h.Sum(nil))
	return res
}
