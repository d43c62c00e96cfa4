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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelSet_SetAndGet(t *testing.T) {
	require := require.New(t)
	levels := []int{0, 1, 2, 7, 8, 63, 64, 127, 128, 191, 192, 255}

	var s levelSet
	for i, level := range levels {
		for j := range levels {
			require.Equal(j < i, s.get(levels[j]), "before setting: i=%d,j=%d", i, j)
		}
		s.set(level)
		for j := range levels {
			require.Equal(j <= i, s.get(levels[j]), "after setting: i=%d,j=%d", i, j)
		}
	}
	require.Equal(len(levels), s.size())
}

func TestLevelSet_AppendAndRead_RoundTrip(t *testing.T) {
	for _, depth := range []int{1, 7, 8, 9, 64, 65, 200, 256} {
		require := require.New(t)
		var s levelSet
		for level := 0; level < depth; level += 3 {
			s.set(level)
		}
		s.set(depth - 1)

		data := s.appendTo(nil, depth)
		require.Len(data, numSetBytes(depth))

		var got levelSet
		require.True(got.readFrom(data, depth))
		require.Equal(s, got, "depth %d", depth)
	}
}

func TestLevelSet_AppendTo_UsesLittleEndianBitOrder(t *testing.T) {
	var s levelSet
	s.set(0)
	s.set(9)
	s.set(15)
	require.Equal(t, []byte{0x01, 0x82}, s.appendTo(nil, 16))
}

func TestLevelSet_ReadFrom_RejectsLevelsAboveDepth(t *testing.T) {
	require := require.New(t)
	var s levelSet
	require.True(s.readFrom([]byte{0xFF, 0x03}, 10))
	require.False(s.readFrom([]byte{0xFF, 0x07}, 10))
	require.False(s.readFrom([]byte{0x80}, 7))
}

func TestLevelSet_ReadFrom_ResetsPreviousContent(t *testing.T) {
	var s levelSet
	s.set(100)
	require.True(t, s.readFrom(slices.Clone([]byte{0x01}), 8))
	require.False(t, s.get(100))
	require.Equal(t, 1, s.size())
}
