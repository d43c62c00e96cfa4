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

import "math/bits"

// levelSet is a set of tree levels, one bit per level of a tree of up to
// MaxDepth levels.
type levelSet [MaxDepth / 64]uint64

func (s *levelSet) get(level int) bool {
	return (s[level/64] & (1 << (level % 64))) != 0
}

func (s *levelSet) set(level int) {
	s[level/64] |= 1 << (level % 64)
}

// size returns the number of levels in the set.
func (s *levelSet) size() int {
	count := 0
	for _, v := range s {
		count += bits.OnesCount64(v)
	}
	return count
}

// appendTo appends the first depth bits of the set in ceil(depth/8) bytes,
// level l being bit l%8 of byte l/8.
func (s *levelSet) appendTo(buf []byte, depth int) []byte {
	for i := 0; i < numSetBytes(depth); i++ {
		buf = append(buf, byte(s[i/8]>>(8*(i%8))))
	}
	return buf
}

// readFrom is the inverse of appendTo. It reports false if a bit at or above
// depth is set.
func (s *levelSet) readFrom(data []byte, depth int) bool {
	*s = levelSet{}
	for i, b := range data {
		s[i/8] |= uint64(b) << (8 * (i % 8))
	}
	for level := depth; level < len(data)*8; level++ {
		if s.get(level) {
			return false
		}
	}
	return true
}

func numSetBytes(depth int) int {
	return (depth + 7) / 8
}
