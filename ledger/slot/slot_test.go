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
	"path/filepath"
	"sync"
	"testing"

	"github.com/panoptisDev/zkledger/common"
	"github.com/stretchr/testify/require"
)

type slotFactory struct {
	name string
	open func(t *testing.T) Slot
}

func getSlotFactories() []slotFactory {
	return []slotFactory{
		{
			name: "memory",
			open: func(*testing.T) Slot { return NewMemory() },
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Slot {
				slot, err := OpenSQLite(filepath.Join(t.TempDir(), "slot.db"))
				require.NoError(t, err)
				return slot
			},
		},
	}
}

func TestSlot_NewSlotIsUninitialized(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()

			root, initialized, err := slot.Load(context.Background())
			require.NoError(err)
			require.False(initialized)
			require.Zero(root)
		})
	}
}

func TestSlot_InitializeSetsRoot(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()

			require.NoError(slot.Initialize(ctx, common.Hash{1}))
			root, initialized, err := slot.Load(ctx)
			require.NoError(err)
			require.True(initialized)
			require.Equal(common.Hash{1}, root)
		})
	}
}

func TestSlot_InitializeCanOnlyBeCalledOnce(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()

			require.NoError(slot.Initialize(ctx, common.Hash{1}))
			require.ErrorIs(slot.Initialize(ctx, common.Hash{2}), ErrInitialized)

			root, _, err := slot.Load(ctx)
			require.NoError(err)
			require.Equal(common.Hash{1}, root)
		})
	}
}

func TestSlot_SwapReplacesExpectedRoot(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()

			require.NoError(slot.Initialize(ctx, common.Hash{1}))
			require.NoError(slot.Swap(ctx, common.Hash{1}, common.Hash{2}))
			require.NoError(slot.Swap(ctx, common.Hash{2}, common.Hash{3}))

			root, _, err := slot.Load(ctx)
			require.NoError(err)
			require.Equal(common.Hash{3}, root)
		})
	}
}

func TestSlot_SwapRejectsUnexpectedRoot(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()

			require.NoError(slot.Initialize(ctx, common.Hash{1}))
			require.NoError(slot.Swap(ctx, common.Hash{1}, common.Hash{2}))
			require.ErrorIs(slot.Swap(ctx, common.Hash{1}, common.Hash{3}), ErrConflict)

			root, _, err := slot.Load(ctx)
			require.NoError(err)
			require.Equal(common.Hash{2}, root)
		})
	}
}

func TestSlot_SwapRequiresInitialization(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()

			err := slot.Swap(context.Background(), common.Hash{}, common.Hash{1})
			require.ErrorIs(err, ErrUninitialized)
		})
	}
}

func TestSlot_ConcurrentSwapsAdmitExactlyOne(t *testing.T) {
	for _, factory := range getSlotFactories() {
		t.Run(factory.name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			slot := factory.open(t)
			defer func() { require.NoError(slot.Close()) }()
			require.NoError(slot.Initialize(ctx, common.Hash{}))

			const N = 10
			var wg sync.WaitGroup
			errs := make([]error, N)
			for i := range N {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = slot.Swap(ctx, common.Hash{}, common.Hash{byte(i + 1)})
				}()
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
				} else {
					require.ErrorIs(err, ErrConflict)
				}
			}
			require.Equal(1, succeeded)
		})
	}
}

func TestMemory_ClosedSlotCanNotBeUsed(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	slot := NewMemory()
	require.NoError(slot.Close())

	_, _, err := slot.Load(ctx)
	require.ErrorIs(err, ErrClosed)
	require.ErrorIs(slot.Initialize(ctx, common.Hash{}), ErrClosed)
	require.ErrorIs(slot.Swap(ctx, common.Hash{}, common.Hash{}), ErrClosed)
}

func TestSQLite_StateSurvivesReopening(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slot.db")

	slot, err := OpenSQLite(path)
	require.NoError(err)
	require.NoError(slot.Initialize(ctx, common.Hash{1}))
	require.NoError(slot.Swap(ctx, common.Hash{1}, common.Hash{2}))
	require.NoError(slot.Close())

	slot, err = OpenSQLite(path)
	require.NoError(err)
	defer func() { require.NoError(slot.Close()) }()
	root, initialized, err := slot.Load(ctx)
	require.NoError(err)
	require.True(initialized)
	require.Equal(common.Hash{2}, root)
}

func TestSQLite_HistoryListsAllRoots(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	slot, err := OpenSQLite(filepath.Join(t.TempDir(), "slot.db"))
	require.NoError(err)
	defer func() { require.NoError(slot.Close()) }()

	history, err := slot.History(ctx)
	require.NoError(err)
	require.Empty(history)

	require.NoError(slot.Initialize(ctx, common.Hash{1}))
	require.NoError(slot.Swap(ctx, common.Hash{1}, common.Hash{2}))
	require.ErrorIs(slot.Swap(ctx, common.Hash{1}, common.Hash{3}), ErrConflict)
	require.NoError(slot.Swap(ctx, common.Hash{2}, common.Hash{4}))

	history, err = slot.History(ctx)
	require.NoError(err)
	require.Len(history, 3)
	for i, want := range []common.Hash{{1}, {2}, {4}} {
		require.Equal(uint64(i), history[i].Seq)
		require.Equal(want, history[i].Root)
		require.False(history[i].Time.IsZero())
	}
}
