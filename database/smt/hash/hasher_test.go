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
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func allHashers() []Hasher {
	return []Hasher{MiMC(), Keccak(), Pedersen()}
}

func TestHasher_ByName_ReturnsRegisteredSchemes(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			hasher, err := ByName(name)
			require.NoError(t, err)
			require.Equal(t, name, hasher.Name())
		})
	}
}

func TestHasher_ByName_RejectsUnknownScheme(t *testing.T) {
	_, err := ByName("sha1")
	require.ErrorContains(t, err, "unknown hash scheme")
}

func TestHasher_Names_AreSorted(t *testing.T) {
	require.Equal(t, []string{KeccakName, MiMCName, PedersenName}, Names())
}

func TestHasher_LeafOfZeroIsNotZeroBytes(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			require.NotEqual(t, common.Hash{}, hasher.Leaf(amount.New(0)))
		})
	}
}

func TestHasher_LeafDistinguishesValues(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			require := require.New(t)
			a := hasher.Leaf(amount.New(1000))
			b := hasher.Leaf(amount.New(1050))
			require.NotEqual(a, b)
			require.Equal(a, hasher.Leaf(amount.New(1000)))
		})
	}
}

func TestHasher_LeafCoversUpperLimb(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			upper := amount.NewFromBytes(append([]byte{1}, make([]byte, 16)...)...)
			require.NotEqual(t, hasher.Leaf(amount.New(0)), hasher.Leaf(upper))
		})
	}
}

func TestHasher_NodeIsOrderSensitive(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			require := require.New(t)
			left := hasher.Leaf(amount.New(1))
			right := hasher.Leaf(amount.New(2))
			require.NotEqual(hasher.Node(left, right), hasher.Node(right, left))
			require.Equal(hasher.Node(left, right), hasher.Node(left, right))
		})
	}
}

func TestHasher_NodeDiffersFromLeaf(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			zero := hasher.Leaf(amount.New(0))
			require.NotEqual(t, zero, hasher.Node(zero, zero))
		})
	}
}

func TestHasher_AccountKeysAreDistinct(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			require := require.New(t)
			a := hasher.AccountKey(common.Address{1})
			b := hasher.AccountKey(common.Address{2})
			require.NotEqual(a, b)
			require.Equal(a, hasher.AccountKey(common.Address{1}))
		})
	}
}

func TestHasher_ProducedDigestsAreCanonical(t *testing.T) {
	for _, hasher := range allHashers() {
		t.Run(hasher.Name(), func(t *testing.T) {
			require := require.New(t)
			leaf := hasher.Leaf(amount.New(12))
			require.True(hasher.IsCanonical(leaf))
			require.True(hasher.IsCanonical(hasher.Node(leaf, leaf)))
			require.True(hasher.IsCanonical(common.Hash(hasher.AccountKey(common.Address{7}))))
		})
	}
}

func TestHasher_FieldSchemesRejectOversizedDigests(t *testing.T) {
	var max common.Hash
	for i := range max {
		max[i] = 0xFF
	}
	require.False(t, MiMC().IsCanonical(max))
	require.False(t, Pedersen().IsCanonical(max))
	require.True(t, Keccak().IsCanonical(max))
}

func TestMiMC_LeafMatchesReferenceComputation(t *testing.T) {
	require := require.New(t)

	value := amount.New(1000)
	lo, hi := value.Limbs()

	var tag, l, h fr.Element
	tag.SetUint64(MiMCLeafTag)
	l.SetBytes(lo[:])
	h.SetBytes(hi[:])

	ref := mimc.NewMiMC()
	for _, e := range []fr.Element{tag, l, h} {
		b := e.Bytes()
		_, err := ref.Write(b[:])
		require.NoError(err)
	}
	require.Equal(ref.Sum(nil), MiMC().Leaf(value).Bytes())
}

func TestMiMC_ToField_ReducesDigest(t *testing.T) {
	modulus := fr.Modulus()
	var digest common.Hash
	modulus.FillBytes(digest[:])
	value := ToField(digest)
	require.True(t, value.IsZero())
}

func TestKeccak_NodeMatchesReferenceComputation(t *testing.T) {
	left := common.Hash{1}
	right := common.Hash{2}

	ref := sha3.NewLegacyKeccak256()
	ref.Write([]byte{0x01})
	ref.Write(left[:])
	ref.Write(right[:])
	require.Equal(t, ref.Sum(nil), Keccak().Node(left, right).Bytes())
}
