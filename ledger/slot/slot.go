// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package slot provides storage for the single root commitment summarizing the
// state of a ledger. A slot is the source of truth for the state of a ledger:
// it starts uninitialized, gets initialized exactly once, and afterwards only
// changes through compare-and-swap updates.
package slot

//go:generate mockgen -source slot.go -destination slot_mocks.go -package slot

import (
	"context"
	"errors"

	"github.com/panoptisDev/zkledger/common"
)

var (
	// ErrInitialized is returned when initializing a slot a second time.
	ErrInitialized = errors.New("slot already initialized")
	// ErrUninitialized is returned when swapping the root of a slot that has
	// not been initialized.
	ErrUninitialized = errors.New("slot not initialized")
	// ErrConflict is returned when the root of a slot differs from the root
	// a swap expected to replace.
	ErrConflict = errors.New("slot root has changed")
	// ErrClosed is returned when accessing a closed slot.
	ErrClosed = errors.New("slot closed")
)

// Slot holds the root commitment of a ledger. Implementations are safe for
// concurrent use.
type Slot interface {
	// Load returns the current root and whether the slot is initialized.
	Load(ctx context.Context) (root common.Hash, initialized bool, err error)
	// Initialize sets the first root of the slot.
	Initialize(ctx context.Context, root common.Hash) error
	// Swap replaces the current root by next if the current root is old.
	Swap(ctx context.Context, old, next common.Hash) error
	// Close releases the resources of the slot.
	Close() error
}
