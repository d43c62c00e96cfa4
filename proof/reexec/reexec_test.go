// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package reexec

import (
	"context"
	"testing"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt"
	"github.com/panoptisDev/zkledger/database/smt/hash"
	"github.com/panoptisDev/zkledger/ledger"
	"github.com/panoptisDev/zkledger/ledger/slot"
	"github.com/stretchr/testify/require"
)

var testConfig = smt.Config{Scheme: hash.KeccakName, Depth: 64}

func newTransition(t *testing.T) (*ledger.Executor, ledger.Transition) {
	t.Helper()
	executor, err := ledger.NewExecutor(testConfig)
	require.NoError(t, err)
	m, err := smt.New(testConfig)
	require.NoError(t, err)
	key := common.Key{31: 0x42}
	m.Set(key, amount.New(1000))
	m.Set(common.Key{31: 0x43}, amount.New(5))

	transition, err := executor.Evaluate(m.Root(), key, amount.New(50), amount.New(1000), m.Witness(key))
	require.NoError(t, err)
	return executor, transition
}

func TestOracle_ProofOfValidTransitionIsAccepted(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	executor, transition := newTransition(t)
	oracle := New(executor)

	proof, err := oracle.Prove(ctx, transition)
	require.NoError(err)
	ok, err := oracle.Verify(ctx, proof, transition.PublicInputs())
	require.NoError(err)
	require.True(ok)
}

func TestOracle_ProofDoesNotHoldForOtherPublicInputs(t *testing.T) {
	ctx := context.Background()
	executor, transition := newTransition(t)
	oracle := New(executor)
	proof, err := oracle.Prove(ctx, transition)
	require.NoError(t, err)

	tests := map[string]func(*ledger.PublicInputs){
		"old root": func(in *ledger.PublicInputs) { in.OldRoot[0] ^= 1 },
		"new root": func(in *ledger.PublicInputs) { in.NewRoot[0] ^= 1 },
		"amount":   func(in *ledger.PublicInputs) { in.Amount = amount.New(51) },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			inputs := transition.PublicInputs()
			modify(&inputs)
			ok, err := oracle.Verify(ctx, proof, inputs)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestOracle_MalformedProofIsNotAccepted(t *testing.T) {
	ctx := context.Background()
	executor, transition := newTransition(t)
	oracle := New(executor)
	proof, err := oracle.Prove(ctx, transition)
	require.NoError(t, err)

	for name, bad := range map[string]ledger.Proof{
		"empty":      nil,
		"truncated":  proof[:len(proof)-1],
		"no witness": proof[:prefixSize],
	} {
		t.Run(name, func(t *testing.T) {
			ok, err := oracle.Verify(ctx, bad, transition.PublicInputs())
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestOracle_InconsistentTransitionCanNotBeProven(t *testing.T) {
	executor, transition := newTransition(t)
	transition.NewRoot = common.Hash{1}
	_, err := New(executor).Prove(context.Background(), transition)
	require.ErrorIs(t, err, ErrInconsistentTransition)
}

func TestOracle_CancelledContextIsReported(t *testing.T) {
	executor, transition := newTransition(t)
	oracle := New(executor)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := oracle.Prove(ctx, transition)
	require.ErrorIs(t, err, context.Canceled)
	_, err = oracle.Verify(ctx, nil, transition.PublicInputs())
	require.ErrorIs(t, err, context.Canceled)
}

func TestOracle_CanBeAttachedToLedger(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	executor, err := ledger.NewExecutor(testConfig)
	require.NoError(err)
	l, err := ledger.New(executor, slot.NewMemory(), ledger.WithOracle(New(executor)))
	require.NoError(err)
	defer func() { require.NoError(l.Close()) }()

	m, err := smt.New(testConfig)
	require.NoError(err)
	_, err = l.Init(ctx)
	require.NoError(err)

	key := common.Key{31: 7}
	root, err := l.Deposit(ctx, key, amount.New(1000), amount.Amount{}, m.Witness(key))
	require.NoError(err)
	m.Set(key, amount.New(1000))
	require.Equal(m.Root(), root)
}
