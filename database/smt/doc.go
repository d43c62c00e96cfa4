// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package smt implements a sparse commitment map, a binary Merkle tree over a
// key space of up to 2^256 positions in which every position not explicitly
// set holds the zero value.
//
// Empty subtrees are never materialized. Their digests are the well-known
// defaults of the hash scheme: the digest of an empty leaf at height 0 and
// the combination of two empty subtrees of height l at height l+1. Thus the
// root of a map only depends on its content, not on the order of updates or
// on how the map is represented in memory.
//
// Maps can be backed by a Store to persist their leaves, and can be exported
// into and imported from a compressed stream.
package smt
