// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package slot

import (
	"context"
	"fmt"
	"sync"

	"github.com/panoptisDev/zkledger/common"
)

type memorySlot struct {
	mutex       sync.Mutex
	root        common.Hash
	initialized bool
	closed      bool
}

// NewMemory creates an uninitialized slot that is not persisted.
func NewMemory() Slot {
	return &memorySlot{}
}

func (s *memorySlot) Load(context.Context) (common.Hash, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return common.Hash{}, false, ErrClosed
	}
	return s.root, s.initialized, nil
}

func (s *memorySlot) Initialize(_ context.Context, root common.Hash) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.initialized {
		return ErrInitialized
	}
	s.root = root
	s.initialized = true
	return nil
}

func (s *memorySlot) Swap(_ context.Context, old, next common.Hash) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.initialized {
		return ErrUninitialized
	}
	if s.root != old {
		return fmt.Errorf("%w: expected %v, found %v", ErrConflict, old, s.root)
	}
	s.root = next
	return nil
}

func (s *memorySlot) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}
