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
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Address is the 20-byte identity of an account owning a balance. The ledger
// never interprets addresses directly; they are hashed into Keys.
type Address [20]byte

// Key is the 32-byte big-endian position of a balance in the sparse map. Keys
// are derived from addresses using the hash scheme of the map.
type Key [32]byte

// Hash is a 32-byte digest. It is used for node commitments and for the
// root commitment summarizing an entire map.
type Hash [32]byte

// AddressFromPublicKey derives the address of a secp256k1 public key the same
// way Ethereum accounts are derived.
func AddressFromPublicKey(key *ecdsa.PublicKey) Address {
	return Address(crypto.PubkeyToAddress(*key))
}

// ParseAddress parses a hex-encoded address with an optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	var res Address
	if err := parseFixedHex(s, res[:]); err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return res, nil
}

// ParseKey parses a hex-encoded key with an optional 0x prefix.
func ParseKey(s string) (Key, error) {
	var res Key
	if err := parseFixedHex(s, res[:]); err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return res, nil
}

// ParseHash parses a hex-encoded hash with an optional 0x prefix.
func ParseHash(s string) (Hash, error) {
	var res Hash
	if err := parseFixedHex(s, res[:]); err != nil {
		return Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	return res, nil
}

func parseFixedHex(s string, out []byte) error {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*len(out) {
		return fmt.Errorf("expected %d hex digits, got %d", 2*len(out), len(s))
	}
	_, err := hex.Decode(out, []byte(s))
	return err
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Bit returns the i-th least significant bit of the key, interpreted as a
// 256-bit big-endian integer.
func (k Key) Bit(i int) byte {
	return (k[31-i/8] >> (i % 8)) & 1
}

// Mask returns the key with all bits at positions depth and above cleared.
// The result is the index of the key in a tree of the given depth.
func (k Key) Mask(depth int) Key {
	if depth >= 256 {
		return k
	}
	res := k
	full := depth / 8
	for i := 0; i < 32-full; i++ {
		res[i] = 0
	}
	if rest := depth % 8; rest != 0 {
		res[31-full] = k[31-full] & (1<<rest - 1)
	}
	return res
}
