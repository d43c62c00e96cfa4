// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package future

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreate_PromiseAndFutureAreLinked(t *testing.T) {
	promise, future := Create[int]()
	promise.Resolve(12)
	value, err := future.Await()
	require.NoError(t, err)
	require.Equal(t, 12, value)
}

func TestReject_ErrorIsDeliveredWithZeroValue(t *testing.T) {
	issue := errors.New("rejected")
	promise, future := Create[int]()
	promise.Reject(issue)
	value, err := future.Await()
	require.ErrorIs(t, err, issue)
	require.Zero(t, value)
}

func TestSettle_DropsValueOnError(t *testing.T) {
	issue := errors.New("failed")
	promise, future := Create[string]()
	promise.Settle("partial", issue)
	value, err := future.Await()
	require.ErrorIs(t, err, issue)
	require.Empty(t, value)
}

func TestReady_FutureIsCompleted(t *testing.T) {
	value, err := Ready("hello").Await()
	require.NoError(t, err)
	require.Equal(t, "hello", value)
}

func TestFailed_FutureIsCompletedWithError(t *testing.T) {
	issue := errors.New("failed")
	_, err := Failed[string](issue).Await()
	require.ErrorIs(t, err, issue)
}

func TestAwaitContext_ReturnsWhenContextIsDone(t *testing.T) {
	_, future := Create[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := future.AwaitContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAwaitContext_ReturnsOutcomeIfAvailable(t *testing.T) {
	value, err := Ready(7).AwaitContext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, value)
}

func TestThen_FutureValueCanBeTransformed(t *testing.T) {
	promise, future := Create[[]int]()
	transformed := Then(future, func(value []int) (int, error) {
		return len(value), nil
	})

	promise.Resolve([]int{1, 2, 3, 4, 5})
	value, err := transformed.Await()
	require.NoError(t, err)
	require.Equal(t, 5, value)
}

func TestThen_ErrorsArePassedThrough(t *testing.T) {
	issue := errors.New("failed")
	called := false
	transformed := Then(Failed[string](issue), func(value string) (int, error) {
		called = true
		return strconv.Atoi(value)
	})
	_, err := transformed.Await()
	require.ErrorIs(t, err, issue)
	require.False(t, called)
}

func TestThen_TransformationErrorsAreReported(t *testing.T) {
	transformed := Then(Ready("not a number"), strconv.Atoi)
	_, err := transformed.Await()
	require.Error(t, err)
}
