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
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Amount is a non-negative 256-bit balance. The zero value is a valid amount
// representing zero, which is also the implicit balance of every absent key.
type Amount struct {
	internal uint256.Int
}

// New creates an amount from a uint64 value.
func New(value uint64) Amount {
	return Amount{internal: *uint256.NewInt(value)}
}

// NewFromUint256 creates an amount from a uint256 value.
func NewFromUint256(value *uint256.Int) Amount {
	return Amount{internal: *value}
}

// NewFromBytes creates an amount from a big-endian byte slice. Inputs longer
// than 32 bytes are truncated to their least significant 32 bytes.
func NewFromBytes(data ...byte) Amount {
	res := Amount{}
	if len(data) > 32 {
		data = data[len(data)-32:]
	}
	res.internal.SetBytes(data)
	return res
}

// NewFromBig converts a big integer into an amount. Negative values and values
// not fitting into 256 bits are rejected.
func NewFromBig(value *big.Int) (Amount, error) {
	if value == nil {
		return Amount{}, fmt.Errorf("amount is nil")
	}
	if value.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount %v is negative", value)
	}
	res := Amount{}
	if overflow := res.internal.SetFromBig(value); overflow {
		return Amount{}, fmt.Errorf("amount %v exceeds 256 bits", value)
	}
	return res, nil
}

// Parse reads a decimal amount. Hex input with a 0x prefix is accepted too.
func Parse(s string) (Amount, error) {
	value, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return NewFromBig(value)
}

// Max returns the largest representable amount, 2^256-1.
func Max() Amount {
	res := Amount{}
	res.internal.SetAllOne()
	return res
}

// Add returns the sum of a and b. The second result reports whether the sum
// overflowed the 256-bit range, in which case the first result is truncated.
func (a Amount) Add(b Amount) (Amount, bool) {
	res := Amount{}
	_, overflow := res.internal.AddOverflow(&a.internal, &b.internal)
	return res, overflow
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.internal.IsZero()
}

// Uint256 returns the amount as a uint256 value.
func (a Amount) Uint256() uint256.Int {
	return a.internal
}

// Big returns the amount as a big integer.
func (a Amount) Big() *big.Int {
	return a.internal.ToBig()
}

// Bytes32 returns the 32-byte big-endian representation of the amount.
func (a Amount) Bytes32() [32]byte {
	return a.internal.Bytes32()
}

// Limbs splits the amount into its lower and upper 128-bit halves, each as a
// 16-byte big-endian value. Hash schemes over fields smaller than 256 bits
// commit to the two limbs instead of the full value.
func (a Amount) Limbs() (lo, hi [16]byte) {
	b := a.internal.Bytes32()
	copy(hi[:], b[:16])
	copy(lo[:], b[16:])
	return lo, hi
}

// String returns the decimal representation of the amount.
func (a Amount) String() string {
	return a.internal.Dec()
}
