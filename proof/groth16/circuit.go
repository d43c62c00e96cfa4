// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package groth16

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/rangecheck"
	"github.com/panoptisDev/zkledger/database/smt/hash"
)

// limbBits is the width of the two limbs a value is split into.
const limbBits = 128

// pathBits is the maximum number of path bits representable by a single
// BN254 scalar. Levels above are always entered from the left.
const pathBits = 254

// DepositCircuit states that there is a leaf value and a witness such that
// the old root commits to the leaf holding the claimed value and the new root
// commits to the same leaf holding the claimed value plus the amount. Values
// are handled as pairs of 128-bit limbs, matching the MiMC leaf encoding.
type DepositCircuit struct {
	OldRoot  frontend.Variable `gnark:",public"`
	NewRoot  frontend.Variable `gnark:",public"`
	AmountLo frontend.Variable `gnark:",public"`
	AmountHi frontend.Variable `gnark:",public"`

	Path      frontend.Variable
	ClaimedLo frontend.Variable
	ClaimedHi frontend.Variable
	Siblings  []frontend.Variable
}

// NewCircuit creates the circuit definition for trees of the given depth.
func NewCircuit(depth int) *DepositCircuit {
	return &DepositCircuit{Siblings: make([]frontend.Variable, depth)}
}

func (c *DepositCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	ranges := rangecheck.New(api)
	for _, limb := range []frontend.Variable{c.AmountLo, c.AmountHi, c.ClaimedLo, c.ClaimedHi} {
		ranges.Check(limb, limbBits)
	}

	// new = claimed + amount, carrying from the low into the high limb; the
	// high limb must not exceed its width.
	low := api.Add(c.ClaimedLo, c.AmountLo)
	carry := api.ToBinary(low, limbBits+1)[limbBits]
	newLo := api.Sub(low, api.Mul(carry, new(big.Int).Lsh(big.NewInt(1), limbBits)))
	newHi := api.Add(c.ClaimedHi, c.AmountHi, carry)
	ranges.Check(newHi, limbBits)

	depth := len(c.Siblings)
	path := api.ToBinary(c.Path, min(depth, pathBits))

	mix := func(inputs ...frontend.Variable) frontend.Variable {
		h.Reset()
		h.Write(inputs...)
		return h.Sum()
	}

	oldDigest := mix(hash.MiMCLeafTag, c.ClaimedLo, c.ClaimedHi)
	newDigest := mix(hash.MiMCLeafTag, newLo, newHi)
	for level, sibling := range c.Siblings {
		if level >= len(path) {
			oldDigest = mix(oldDigest, sibling)
			newDigest = mix(newDigest, sibling)
			continue
		}
		right := path[level]
		oldDigest = mix(api.Select(right, sibling, oldDigest), api.Select(right, oldDigest, sibling))
		newDigest = mix(api.Select(right, sibling, newDigest), api.Select(right, newDigest, sibling))
	}

	api.AssertIsEqual(oldDigest, c.OldRoot)
	api.AssertIsEqual(newDigest, c.NewRoot)
	return nil
}
