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

import "github.com/panoptisDev/zkledger/common"

// State is the complete state of a ledger instance: a single root commitment
// and whether it has been initialized. States are passed by reference into
// the Executor, which is the only component modifying them.
type State struct {
	root        common.Hash
	initialized bool
}

// NewState creates the state of a ledger that has not been initialized yet.
func NewState() *State {
	return &State{}
}

// RestoreState creates the state of an initialized ledger with the given
// root, for instance as loaded from a state slot.
func RestoreState(root common.Hash) *State {
	return &State{root: root, initialized: true}
}

// Root returns the current root and whether the ledger is initialized. The
// root of an uninitialized ledger is undefined.
func (s *State) Root() (common.Hash, bool) {
	return s.root, s.initialized
}

func (s *State) commit(root common.Hash) {
	s.root = root
	s.initialized = true
}
