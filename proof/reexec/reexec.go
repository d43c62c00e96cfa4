// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package reexec implements a proof oracle whose proofs are the private
// inputs of a transition. A verifier checks a proof by evaluating the
// transition again. Proofs are neither succinct nor zero-knowledge; the
// oracle serves as a reference for other proof systems and as a cheap
// attestation for tests and tooling.
package reexec

import (
	"context"
	"errors"
	"fmt"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/witness"
	"github.com/panoptisDev/zkledger/ledger"
)

// ErrInconsistentTransition is returned when asked to prove a transition that
// does not follow from its inputs.
var ErrInconsistentTransition = errors.New("transition does not follow from its inputs")

// Oracle proves and verifies transitions of ledgers using the transition rule
// of the given executor.
type Oracle struct {
	executor *ledger.Executor
}

// New creates an oracle for ledgers using the given executor.
func New(executor *ledger.Executor) *Oracle {
	return &Oracle{executor: executor}
}

// proof layout: key (32 bytes) | claimed value (32 bytes) | binary witness
const prefixSize = 2 * 32

func (o *Oracle) Prove(ctx context.Context, transition ledger.Transition) (ledger.Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !o.holds(transition.PublicInputs(), transition.Key, transition.Claimed, transition.Witness) {
		return nil, ErrInconsistentTransition
	}
	encoded, err := witness.Encode(o.executor.Hasher(), transition.Witness)
	if err != nil {
		return nil, err
	}
	claimed := transition.Claimed.Bytes32()
	res := make([]byte, 0, prefixSize)
	res = append(res, transition.Key[:]...)
	res = append(res, claimed[:]...)
	res = append(res, encoded...)
	return res, nil
}

func (o *Oracle) Verify(ctx context.Context, proof ledger.Proof, inputs ledger.PublicInputs) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, claimed, w, err := o.decode(proof)
	if err != nil {
		return false, nil
	}
	return o.holds(inputs, key, claimed, w), nil
}

func (o *Oracle) holds(inputs ledger.PublicInputs, key common.Key, claimed amount.Amount, w witness.Witness) bool {
	transition, err := o.executor.Evaluate(inputs.OldRoot, key, inputs.Amount, claimed, w)
	return err == nil && transition.NewRoot == inputs.NewRoot
}

func (o *Oracle) decode(proof ledger.Proof) (common.Key, amount.Amount, witness.Witness, error) {
	if len(proof) < prefixSize {
		return common.Key{}, amount.Amount{}, witness.Witness{}, fmt.Errorf("proof too short: %d bytes", len(proof))
	}
	key := common.Key(proof[:32])
	claimed := amount.NewFromBytes(proof[32:prefixSize]...)
	w, err := witness.Decode(o.executor.Hasher(), proof[prefixSize:])
	if err != nil {
		return common.Key{}, amount.Amount{}, witness.Witness{}, err
	}
	return key, claimed, w, nil
}
