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
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/database/smt/hash"
)

// Version is the version of the binary witness encoding.
const Version = 1

// ErrMalformed is returned when decoding an invalid witness.
var ErrMalformed = errors.New("malformed witness")

const headerSize = 1 + 2 + len(common.Key{})

// Encode produces the compact binary form of a witness:
//
//	version  (1 byte)
//	depth    (2 bytes, big-endian)
//	path     (32 bytes)
//	levels   (ceil(depth/8) bytes, bit l set if level l is listed explicitly)
//	siblings (32 bytes each, explicitly listed levels in ascending order)
//
// Siblings equal to the digest of an empty subtree of their level are not
// listed. In a sparsely populated map most of them are. Witnesses with a
// depth outside [1,MaxDepth] can not be encoded.
func Encode(hasher hash.Hasher, w Witness) ([]byte, error) {
	depth := w.Depth()
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: invalid depth %d", ErrMalformed, depth)
	}
	empty := Defaults(hasher)

	explicit := levelSet{}
	for level, sibling := range w.Siblings {
		if sibling != empty[level] {
			explicit.set(level)
		}
	}

	res := make([]byte, 0, headerSize+numSetBytes(depth)+explicit.size()*len(common.Hash{}))
	res = append(res, Version)
	res = binary.BigEndian.AppendUint16(res, uint16(depth))
	res = append(res, w.Path[:]...)
	res = explicit.appendTo(res, depth)
	for level, sibling := range w.Siblings {
		if explicit.get(level) {
			res = append(res, sibling[:]...)
		}
	}
	return res, nil
}

// Decode parses a witness produced by Encode. Since witnesses are received
// from untrusted clients, any deviation from the canonical encoding is
// rejected with ErrMalformed.
func Decode(hasher hash.Hasher, data []byte) (Witness, error) {
	if len(data) < headerSize {
		return Witness{}, fmt.Errorf("%w: %d bytes is too short for header", ErrMalformed, len(data))
	}
	if data[0] != Version {
		return Witness{}, fmt.Errorf("%w: unsupported version %d", ErrMalformed, data[0])
	}
	depth := int(binary.BigEndian.Uint16(data[1:3]))
	if depth < 1 || depth > MaxDepth {
		return Witness{}, fmt.Errorf("%w: invalid depth %d", ErrMalformed, depth)
	}
	res := Witness{Path: common.Key(data[3:headerSize])}
	if PathOf(res.Path, depth) != res.Path {
		return Witness{}, fmt.Errorf("%w: path exceeds depth %d", ErrMalformed, depth)
	}
	data = data[headerSize:]

	if len(data) < numSetBytes(depth) {
		return Witness{}, fmt.Errorf("%w: truncated level set", ErrMalformed)
	}
	explicit := levelSet{}
	if !explicit.readFrom(data[:numSetBytes(depth)], depth) {
		return Witness{}, fmt.Errorf("%w: level set exceeds depth %d", ErrMalformed, depth)
	}
	data = data[numSetBytes(depth):]

	if want := explicit.size() * len(common.Hash{}); len(data) != want {
		return Witness{}, fmt.Errorf("%w: expected %d bytes of siblings, got %d", ErrMalformed, want, len(data))
	}

	empty := Defaults(hasher)
	res.Siblings = make([]common.Hash, depth)
	for level := range res.Siblings {
		if !explicit.get(level) {
			res.Siblings[level] = empty[level]
			continue
		}
		sibling := common.Hash(data[:len(common.Hash{})])
		data = data[len(common.Hash{}):]
		if sibling == empty[level] {
			return Witness{}, fmt.Errorf("%w: empty subtree listed explicitly at level %d", ErrMalformed, level)
		}
		if !hasher.IsCanonical(sibling) {
			return Witness{}, fmt.Errorf("%w: non-canonical %s digest at level %d", ErrMalformed, hasher.Name(), level)
		}
		res.Siblings[level] = sibling
	}
	return res, nil
}

type witnessJSON struct {
	Path     hexutil.Bytes   `json:"path"`
	Siblings []hexutil.Bytes `json:"siblings"`
}

// MarshalJSON encodes the witness with its full list of siblings.
func (w Witness) MarshalJSON() ([]byte, error) {
	res := witnessJSON{
		Path:     w.Path[:],
		Siblings: make([]hexutil.Bytes, len(w.Siblings)),
	}
	for i, sibling := range w.Siblings {
		res.Siblings[i] = sibling.Bytes()
	}
	return json.Marshal(res)
}

// UnmarshalJSON decodes a witness produced by MarshalJSON. Digests are not
// checked for canonicity since the hash scheme is not known here.
func (w *Witness) UnmarshalJSON(data []byte) error {
	var in witnessJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Path) != len(common.Key{}) {
		return fmt.Errorf("%w: path has %d bytes", ErrMalformed, len(in.Path))
	}
	if len(in.Siblings) > MaxDepth {
		return fmt.Errorf("%w: %d siblings exceed maximum depth", ErrMalformed, len(in.Siblings))
	}
	res := Witness{
		Path:     common.Key(in.Path),
		Siblings: make([]common.Hash, len(in.Siblings)),
	}
	if PathOf(res.Path, res.Depth()) != res.Path {
		return fmt.Errorf("%w: path exceeds depth %d", ErrMalformed, res.Depth())
	}
	for i, sibling := range in.Siblings {
		if len(sibling) != len(common.Hash{}) {
			return fmt.Errorf("%w: sibling %d has %d bytes", ErrMalformed, i, len(sibling))
		}
		res.Siblings[i] = common.Hash(sibling)
	}
	*w = res
	return nil
}
