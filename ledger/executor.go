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

import (
	"fmt"
	"math/big"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/database/smt/witness"
)

// Executor implements the transition rule of a ledger whose state is the root
// of a sparse commitment map of a fixed configuration. An Executor holds no
// state and may be shared.
type Executor struct {
	config smt.Config
	hasher hash.Hasher
}

// NewExecutor creates an executor for ledgers over maps of the given
// configuration.
func NewExecutor(config smt.Config) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	hasher, err := hash.ByName(config.Scheme)
	if err != nil {
		return nil, err
	}
	return &Executor{config: config, hasher: hasher}, nil
}

// Config returns the configuration of the maps handled by this executor.
func (e *Executor) Config() smt.Config {
	return e.config
}

// Hasher returns the hash scheme of the maps handled by this executor.
func (e *Executor) Hasher() hash.Hasher {
	return e.hasher
}

// EmptyRoot returns the root of a map in which all keys hold zero.
func (e *Executor) EmptyRoot() common.Hash {
	return witness.EmptyRoot(e.hasher, e.config.Depth)
}

// Init initializes the given state with the root of the empty map.
func (e *Executor) Init(state *State) (common.Hash, error) {
	if _, initialized := state.Root(); initialized {
		return common.Hash{}, ErrDoubleInitialization
	}
	root := e.EmptyRoot()
	state.commit(root)
	return root, nil
}

// Evaluate checks a deposit of the given amount to the given key against the
// old root and computes the resulting transition. Evaluate has no side
// effects. The deposit is valid if the claimed value is the current value of
// the key, which is established by recomputing the old root from the claimed
// value and the witness. Siblings must be canonical digests of the scheme.
func (e *Executor) Evaluate(
	oldRoot common.Hash,
	key common.Key,
	value amount.Amount,
	claimed amount.Amount,
	proof witness.Witness,
) (Transition, error) {
	if depth := proof.Depth(); depth != e.config.Depth {
		return Transition{}, fmt.Errorf("%w: witness has depth %d, ledger uses depth %d", ErrStaleOrInvalidWitness, depth, e.config.Depth)
	}
	if !proof.Matches(key) {
		return Transition{}, fmt.Errorf("%w: witness path %v does not belong to key %v", ErrStaleOrInvalidWitness, proof.Path, key)
	}
	for level, sibling := range proof.Siblings {
		if !e.hasher.IsCanonical(sibling) {
			return Transition{}, fmt.Errorf("%w: non-canonical %s digest at level %d", ErrStaleOrInvalidWitness, e.hasher.Name(), level)
		}
	}
	if got := witness.RecomputeRoot(e.hasher, key, claimed, proof); got != oldRoot {
		return Transition{}, fmt.Errorf("%w: claimed value %v reproduces root %v, current root is %v", ErrStaleOrInvalidWitness, claimed, got, oldRoot)
	}

	updated, overflow := claimed.Add(value)
	if overflow {
		return Transition{}, fmt.Errorf("%w: depositing %v to %v exceeds the value domain", ErrInvalidAmount, value, claimed)
	}

	return Transition{
		OldRoot:  oldRoot,
		NewRoot:  witness.RecomputeRoot(e.hasher, key, updated, proof),
		Key:      key,
		Amount:   value,
		Claimed:  claimed,
		NewValue: updated,
		Witness:  proof,
	}, nil
}

// Deposit evaluates a deposit against the root of the given state and, if it
// is valid, commits the new root to the state. On error, the state is not
// modified.
func (e *Executor) Deposit(
	state *State,
	key common.Key,
	value amount.Amount,
	claimed amount.Amount,
	proof witness.Witness,
) (common.Hash, error) {
	root, initialized := state.Root()
	if !initialized {
		return common.Hash{}, ErrUninitialized
	}
	transition, err := e.Evaluate(root, key, value, claimed, proof)
	if err != nil {
		return common.Hash{}, err
	}
	state.commit(transition.NewRoot)
	return transition.NewRoot, nil
}

// AmountFromBig converts a client-provided amount into the value domain of
// the ledger. Negative amounts and amounts exceeding 256 bits are rejected.
func AmountFromBig(value *big.Int) (amount.Amount, error) {
	res, err := amount.NewFromBig(value)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return res, nil
}

// ParseAmount parses a decimal or 0x-prefixed hexadecimal amount.
func ParseAmount(value string) (amount.Amount, error) {
	res, err := amount.Parse(value)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	return res, nil
}
