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
	"sync"

	"github.com/panoptisDev/zkledger/common"
	"github.com/panoptisDev/zkledger/common/amount"
	"github.com/panoptisDev/zkledger/common/future"
	"github.com/panoptisDev/zkledger/database/smt/witness"
)

// Window collects deposits submitted during one settlement window. When the
// window is settled, the submissions are applied one after the other in the
// order they were submitted, each against the root left by its predecessor.
//
// Since every witness is bound to the root it was computed for, at most one
// of several submissions derived from the same root can be admitted, even if
// they target different keys. The others are rejected with
// ErrStaleOrInvalidWitness and need to be resubmitted with a fresh witness in
// a later window.
type Window struct {
	ledger  *Ledger
	mutex   sync.Mutex
	pending []submission
	settled bool
}

type submission struct {
	key     common.Key
	amount  amount.Amount
	claimed amount.Amount
	witness witness.Witness
	promise future.Promise[common.Hash]
}

// OpenWindow starts a new settlement window on this ledger.
func (l *Ledger) OpenWindow() *Window {
	return &Window{ledger: l}
}

// Submit queues a deposit for settlement. The resulting future is completed
// with the new root once the deposit got admitted, or with the reason for its
// rejection.
func (w *Window) Submit(
	key common.Key,
	value amount.Amount,
	claimed amount.Amount,
	proof witness.Witness,
) future.Future[common.Hash] {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.settled {
		return future.Failed[common.Hash](ErrWindowClosed)
	}
	promise, res := future.Create[common.Hash]()
	w.pending = append(w.pending, submission{
		key:     key,
		amount:  value,
		claimed: claimed,
		witness: proof.Clone(),
		promise: promise,
	})
	return res
}

// Len returns the number of submissions waiting for settlement.
func (w *Window) Len() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return len(w.pending)
}

// Settle closes the window and applies all submissions. It returns the number
// of admitted submissions. Once the context is cancelled, remaining
// submissions are rejected with the context's error.
func (w *Window) Settle(ctx context.Context) (int, error) {
	w.mutex.Lock()
	if w.settled {
		w.mutex.Unlock()
		return 0, ErrWindowClosed
	}
	w.settled = true
	pending := w.pending
	w.pending = nil
	w.mutex.Unlock()

	admitted := 0
	for _, cur := range pending {
		if err := ctx.Err(); err != nil {
			cur.promise.Reject(err)
			continue
		}
		root, err := w.ledger.Deposit(ctx, cur.key, cur.amount, cur.claimed, cur.witness)
		if err == nil {
			admitted++
		}
		cur.promise.Settle(root, err)
	}
	return admitted, nil
}
