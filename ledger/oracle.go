// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ledger

//go:generate mockgen -source oracle.go -destination oracle_mocks.go -package ledger

import (
	"context"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/witness"
)

// Transition is a single validated state change of a ledger, including all
// private inputs needed to prove it.
type Transition struct {
	OldRoot  common.Hash
	NewRoot  common.Hash
	Key      common.Key
	Amount   amount.Amount
	Claimed  amount.Amount
	NewValue amount.Amount
	Witness  witness.Witness
}

// PublicInputs returns the part of the transition a verifier gets to see.
func (t Transition) PublicInputs() PublicInputs {
	return PublicInputs{
		OldRoot: t.OldRoot,
		NewRoot: t.NewRoot,
		Amount:  t.Amount,
	}
}

// PublicInputs are the publicly known facts of a transition: the root before
// and after the transition and the deposited amount. The key, the balances,
// and the witness remain private.
type PublicInputs struct {
	OldRoot common.Hash
	NewRoot common.Hash
	Amount  amount.Amount
}

// Proof is an opaque attestation that a transition was evaluated faithfully.
type Proof []byte

// Prover produces proofs for transitions.
type Prover interface {
	Prove(ctx context.Context, transition Transition) (Proof, error)
}

// Verifier checks proofs against the public inputs of a transition. An error
// is reported if the check could not be performed; a proof that does not hold
// is reported as false.
type Verifier interface {
	Verify(ctx context.Context, proof Proof, inputs PublicInputs) (bool, error)
}

// Oracle is a proof system able to both prove and verify transitions.
type Oracle interface {
	Prover
	Verifier
}
