// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package amount

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestAmount_ZeroValueIsZero(t *testing.T) {
	require.True(t, Amount{}.IsZero())
	require.Equal(t, Amount{}, New(0))
	require.Equal(t, "0", Amount{}.String())
}

func TestAmount_Add_SumsValues(t *testing.T) {
	require := require.New(t)

	sum, overflow := New(1000).Add(New(50))
	require.False(overflow)
	require.Equal(New(1050), sum)
	require.Equal("1050", sum.String())
}

func TestAmount_Add_DetectsOverflow(t *testing.T) {
	_, overflow := Max().Add(New(1))
	require.True(t, overflow)

	sum, overflow := Max().Add(New(0))
	require.False(t, overflow)
	require.Equal(t, Max(), sum)
}

func TestAmount_Limbs_SplitIntoLowerAndUpperHalves(t *testing.T) {
	require := require.New(t)

	value := NewFromUint256(new(uint256.Int).Lsh(uint256.NewInt(3), 128))
	value, _ = value.Add(New(7))

	lo, hi := value.Limbs()
	require.Equal([16]byte{15: 7}, lo)
	require.Equal([16]byte{15: 3}, hi)
}

func TestAmount_NewFromBytes_TruncatesToLeastSignificantBytes(t *testing.T) {
	data := make([]byte, 40)
	data[0] = 0xFF // dropped
	data[39] = 0x01
	require.Equal(t, New(1), NewFromBytes(data...))
}

func TestAmount_NewFromBig_RejectsNegativeAndOversizedValues(t *testing.T) {
	require := require.New(t)

	_, err := NewFromBig(big.NewInt(-1))
	require.Error(err)

	_, err = NewFromBig(new(big.Int).Lsh(big.NewInt(1), 256))
	require.Error(err)

	_, err = NewFromBig(nil)
	require.Error(err)

	got, err := NewFromBig(big.NewInt(42))
	require.NoError(err)
	require.Equal(New(42), got)
}

func TestAmount_Parse_AcceptsDecimalAndHex(t *testing.T) {
	require := require.New(t)

	got, err := Parse("1000")
	require.NoError(err)
	require.Equal(New(1000), got)

	got, err = Parse("0x10")
	require.NoError(err)
	require.Equal(New(16), got)

	_, err = Parse("-5")
	require.Error(err)

	_, err = Parse("ten")
	require.Error(err)
}

func TestAmount_Bytes32_IsBigEndian(t *testing.T) {
	require.Equal(t, [32]byte{30: 0x04, 31: 0x1A}, New(1050).Bytes32())
}

func TestAmount_Big_ConvertsValue(t *testing.T) {
	require.Zero(t, big.NewInt(1050).Cmp(New(1050).Big()))
}
