// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ledger implements the state transition rule of an authenticated
// balance ledger. The full state of the ledger is summarized by a single root
// commitment of a sparse commitment map. Balances are updated by submitting
// a transition consisting of a key, the claimed current value at that key,
// the amount to be deposited, and a witness for the key. The transition is
// admitted if the witness and the claimed value reproduce the current root;
// the new root is obtained by recomputing the root from the same witness and
// the new value.
//
// The Executor implements the pure transition rule. The Ledger combines it
// with a persisted state slot, an optional proof oracle, logging and metrics
// and serializes all transitions of a ledger instance.
package ledger
