// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package future provides a placeholder for the outcome of an operation that
// completes later, for instance a transition waiting for the settlement of
// its window. An outcome is either a value or an error.
//
// The producer side of a Future typically looks as follows:
//
//	promise, future := future.Create[T]()
//	go func() {
//	   promise.Settle(someOperation())
//	}()
//	return future
//
// Outcomes that are known right away can be wrapped using Ready or Failed.
package future

import "context"

// outcome is the value or the error an operation completed with.
type outcome[T any] struct {
	value T
	err   error
}

// Promise is the handle used to complete a Future. A promise must be
// completed exactly once.
type Promise[T any] struct {
	c chan<- outcome[T]
}

// Future is the consumer side of a pending outcome. Futures can only be
// awaited once.
type Future[T any] struct {
	c <-chan outcome[T]
}

// Create initializes a linked Promise and Future pair.
func Create[T any]() (Promise[T], Future[T]) {
	ch := make(chan outcome[T], 1)
	return Promise[T]{c: ch}, Future[T]{c: ch}
}

// Ready creates a Future completed with the given value.
func Ready[T any](value T) Future[T] {
	promise, future := Create[T]()
	promise.Resolve(value)
	return future
}

// Failed creates a Future completed with the given error.
func Failed[T any](err error) Future[T] {
	promise, future := Create[T]()
	promise.Reject(err)
	return future
}

// Resolve completes the Future with a value.
func (p Promise[T]) Resolve(value T) {
	p.Settle(value, nil)
}

// Reject completes the Future with an error.
func (p Promise[T]) Reject(err error) {
	var zero T
	p.Settle(zero, err)
}

// Settle completes the Future with the result of a call returning a value and
// an error. If err is not nil, the value is dropped.
func (p Promise[T]) Settle(value T, err error) {
	if err != nil {
		var zero T
		value = zero
	}
	p.c <- outcome[T]{value: value, err: err}
	close(p.c)
}

// Await blocks until the Future is completed and returns its outcome.
func (f Future[T]) Await() (T, error) {
	res := <-f.c
	return res.value, res.err
}

// AwaitContext is like Await but gives up when the context is done. The
// outcome of the operation is lost in that case.
func (f Future[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case res := <-f.c:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then creates a new Future by applying the given transformation to the value
// of the original Future once it is available. Errors are passed through
// without calling the transformation.
func Then[A, B any](f Future[A], transform func(A) (B, error)) Future[B] {
	promise, future := Create[B]()
	go func() {
		value, err := f.Await()
		if err != nil {
			promise.Reject(err)
			return
		}
		promise.Settle(transform(value))
	}()
	return future
}
