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

import "errors"

// Errors reported for rejected transitions. A rejected transition has no
// effect on the ledger; callers may retry with corrected inputs.
var (
	// ErrStaleOrInvalidWitness is reported if the claimed value and the
	// witness do not reproduce the current root. This covers forged witnesses
	// as well as witnesses computed before another transition was admitted.
	ErrStaleOrInvalidWitness = errors.New("stale or invalid witness")
	// ErrInvalidAmount is reported for amounts outside the value domain.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrDoubleInitialization is reported if a ledger is initialized twice.
	ErrDoubleInitialization = errors.New("ledger already initialized")
	// ErrUninitialized is reported for transitions on a ledger that has not
	// been initialized.
	ErrUninitialized = errors.New("ledger not initialized")
	// ErrProofRejected is reported if the proof oracle does not accept the
	// proof of a transition.
	ErrProofRejected = errors.New("transition proof rejected")
	// ErrWindowClosed is reported for submissions to a settled window.
	ErrWindowClosed = errors.New("settlement window closed")
)

// isRejection reports whether the error is caused by the inputs of a
// transition rather than by a failing collaborator.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrStaleOrInvalidWitness,
		ErrInvalidAmount,
		ErrDoubleInitialization,
		ErrUninitialized,
		ErrProofRejected,
		ErrWindowClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
