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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/database/smt/witness"
	"github.com/panoptisDev/zkledger/ledger/slot"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Ledger is a single ledger instance whose state is held by a slot. All
// transitions of a ledger are serialized: each one is validated against the
// root currently held by the slot and, if accepted, replaces it. If an oracle
// is configured, every transition is proven and the proof is verified before
// the slot is updated.
type Ledger struct {
	mutex    sync.Mutex
	executor *Executor
	slot     slot.Slot
	oracle   Oracle
	log      *zap.Logger
	metrics  *metrics
}

// Option customizes a Ledger.
type Option func(*Ledger) error

// WithOracle attaches a proof system to the ledger.
func WithOracle(oracle Oracle) Option {
	return func(l *Ledger) error {
		l.oracle = oracle
		return nil
	}
}

// WithLogger sets the logger of the ledger. By default, nothing is logged.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) error {
		l.log = log
		return nil
	}
}

// WithRegisterer registers the metrics of the ledger.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(l *Ledger) error {
		return l.metrics.register(registerer)
	}
}

// New creates a ledger using the given executor and slot. The slot is owned
// by the ledger and closed by Close.
func New(executor *Executor, slot slot.Slot, options ...Option) (*Ledger, error) {
	res := &Ledger{
		executor: executor,
		slot:     slot,
		log:      zap.NewNop(),
		metrics:  newMetrics(),
	}
	for _, option := range options {
		if err := option(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Executor returns the transition rule used by this ledger.
func (l *Ledger) Executor() *Executor {
	return l.executor
}

// Root returns the current root of the ledger and whether it has been
// initialized.
func (l *Ledger) Root(ctx context.Context) (common.Hash, bool, error) {
	return l.slot.Load(ctx)
}

// Init initializes the ledger with the root of the empty map.
func (l *Ledger) Init(ctx context.Context) (common.Hash, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	root, err := l.init(ctx)
	l.metrics.record(opInit, err)
	if err != nil {
		l.log.Debug("initialization rejected", zap.Error(err))
		return common.Hash{}, err
	}
	l.log.Info("ledger initialized", zap.Stringer("root", root))
	return root, nil
}

func (l *Ledger) init(ctx context.Context) (common.Hash, error) {
	state, err := l.load(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	root, err := l.executor.Init(state)
	if err != nil {
		return common.Hash{}, err
	}
	if err := l.slot.Initialize(ctx, root); err != nil {
		if errors.Is(err, slot.ErrInitialized) {
			return common.Hash{}, fmt.Errorf("%w: %w", ErrDoubleInitialization, err)
		}
		return common.Hash{}, fmt.Errorf("failed to initialize slot: %w", err)
	}
	return root, nil
}

// Deposit credits the given amount to the given key. The claimed value has to
// be the current value of the key and the witness a witness of the key in
// the map summarized by the current root of the ledger. On success, the new
// root is returned; the caller is responsible for applying the same update to
// its copy of the map.
func (l *Ledger) Deposit(
	ctx context.Context,
	key common.Key,
	value amount.Amount,
	claimed amount.Amount,
	proof witness.Witness,
) (common.Hash, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	transition, err := l.deposit(ctx, key, value, claimed, proof)
	l.metrics.record(opDeposit, err)
	if err != nil {
		l.log.Debug("deposit rejected",
			zap.Stringer("key", key),
			zap.Stringer("amount", value),
			zap.Stringer("claimed", claimed),
			zap.Error(err),
		)
		return common.Hash{}, err
	}
	l.log.Info("deposit accepted",
		zap.Stringer("key", key),
		zap.Stringer("amount", value),
		zap.Stringer("old_root", transition.OldRoot),
		zap.Stringer("new_root", transition.NewRoot),
	)
	return transition.NewRoot, nil
}

func (l *Ledger) deposit(
	ctx context.Context,
	key common.Key,
	value amount.Amount,
	claimed amount.Amount,
	proof witness.Witness,
) (Transition, error) {
	state, err := l.load(ctx)
	if err != nil {
		return Transition{}, err
	}
	root, initialized := state.Root()
	if !initialized {
		return Transition{}, ErrUninitialized
	}
	transition, err := l.executor.Evaluate(root, key, value, claimed, proof)
	if err != nil {
		return Transition{}, err
	}
	if err := l.attest(ctx, transition); err != nil {
		return Transition{}, err
	}
	if err := l.slot.Swap(ctx, transition.OldRoot, transition.NewRoot); err != nil {
		switch {
		case errors.Is(err, slot.ErrConflict):
			return Transition{}, fmt.Errorf("%w: %w", ErrStaleOrInvalidWitness, err)
		case errors.Is(err, slot.ErrUninitialized):
			return Transition{}, fmt.Errorf("%w: %w", ErrUninitialized, err)
		}
		return Transition{}, fmt.Errorf("failed to update slot: %w", err)
	}
	return transition, nil
}

// attest proves the transition and verifies the proof against the public
// inputs of the transition.
func (l *Ledger) attest(ctx context.Context, transition Transition) error {
	if l.oracle == nil {
		return nil
	}
	start := time.Now()
	defer func() { l.metrics.observeProof(time.Since(start)) }()

	proof, err := l.oracle.Prove(ctx, transition)
	if err != nil {
		return fmt.Errorf("failed to prove transition: %w", err)
	}
	valid, err := l.oracle.Verify(ctx, proof, transition.PublicInputs())
	if err != nil {
		return fmt.Errorf("failed to verify transition: %w", err)
	}
	if !valid {
		return ErrProofRejected
	}
	return nil
}

func (l *Ledger) load(ctx context.Context) (*State, error) {
	root, initialized, err := l.slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load root: %w", err)
	}
	if !initialized {
		return NewState(), nil
	}
	return RestoreState(root), nil
}

// Close releases the slot of the ledger.
func (l *Ledger) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.slot.Close()
}
