// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestKey_Bit_ReadsLittleEndianBitPositions(t *testing.T) {
	require := require.New(t)

	key := Key{31: 0b0000_0101, 30: 0b1000_0000, 0: 0b1000_0000}
	require.Equal(byte(1), key.Bit(0))
	require.Equal(byte(0), key.Bit(1))
	require.Equal(byte(1), key.Bit(2))
	require.Equal(byte(0), key.Bit(8))
	require.Equal(byte(1), key.Bit(15))
	require.Equal(byte(1), key.Bit(255))
	require.Equal(byte(0), key.Bit(254))
}

func TestKey_Mask_ClearsHighBits(t *testing.T) {
	require := require.New(t)

	key := Key{}
	for i := range key {
		key[i] = 0xFF
	}

	require.Equal(key, key.Mask(256))
	require.Equal(Key{31: 0xFF}, key.Mask(8))
	require.Equal(Key{31: 0x07}, key.Mask(3))
	require.Equal(Key{30: 0x0F, 31: 0xFF}, key.Mask(12))
	require.Equal(Key{}, key.Mask(0))
}

func TestKey_Mask_KeepsBitsBelowDepth(t *testing.T) {
	key := Key{0: 0xAB, 17: 0x42, 31: 0x13}
	masked := key.Mask(100)
	for i := 0; i < 256; i++ {
		if i < 100 {
			require.Equal(t, key.Bit(i), masked.Bit(i), "bit %d", i)
		} else {
			require.Zero(t, masked.Bit(i), "bit %d", i)
		}
	}
}

func TestParseAddress_AcceptsPrefixedAndPlainHex(t *testing.T) {
	require := require.New(t)

	want := Address{0: 0x12, 19: 0x34}
	got, err := ParseAddress(want.String())
	require.NoError(err)
	require.Equal(want, got)

	got, err = ParseAddress(want.String()[2:])
	require.NoError(err)
	require.Equal(want, got)
}

func TestParseAddress_RejectsWrongLength(t *testing.T) {
	_, err := ParseAddress("0x1234")
	require.Error(t, err)
}

func TestParseHash_RoundTripsString(t *testing.T) {
	want := Hash{1, 2, 3, 31: 4}
	got, err := ParseHash(want.String())
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestParseKey_RejectsNonHex(t *testing.T) {
	_, err := ParseKey("0x" + string(make([]byte, 64)))
	require.Error(t, err)
}

func TestAddressFromPublicKey_MatchesEthereumDerivation(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	require.Equal(t,
		Address(crypto.PubkeyToAddress(key.PublicKey)),
		AddressFromPublicKey(&key.PublicKey),
	)
}
