package concurrent

import (
	"errors"
	"runtime"
	"sync"

	"github.com/flightvars/fdmqtt/result"
)

// ErrBadPromise is returned when operating on a promise that has already
// been fulfilled (or was never valid to begin with).
var ErrBadPromise = errors.New("concurrent: promise already fulfilled")

// ErrFutureAlreadyRetrieved is returned by a second call to GetFuture on the
// same promise: the future may only be retrieved once.
var ErrFutureAlreadyRetrieved = errors.New("concurrent: future already retrieved from this promise")

// ErrBrokenPromise is the failure pushed to a future when its promise is
// discarded, or garbage collected, without ever being fulfilled.
var ErrBrokenPromise = errors.New("concurrent: promise discarded before setting a value")

// Promise is the write side of a Promise/Future pair: exactly one of
// SetSuccess, SetFailure or Set may be called on it, exactly once.
type Promise[T any] struct {
	state SharedState[T]

	mu              sync.Mutex
	futureRetrieved bool
}

// NewPromise creates a fresh, unfulfilled promise. Its paired future is
// obtained with GetFuture, callable exactly once. A promise that is never
// fulfilled fails its future with ErrBrokenPromise, either immediately via
// Discard or, as a backstop, when the promise is garbage collected.
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{state: NewSharedState[T]()}
	runtime.SetFinalizer(p, func(p *Promise[T]) {
		if p.state.Valid() {
			_ = p.state.PushFailure(ErrBrokenPromise)
		}
	})
	return p
}

// GetFuture returns the future paired with this promise. It may be called
// exactly once; a second call fails with ErrFutureAlreadyRetrieved.
func (p *Promise[T]) GetFuture() (*Future[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.futureRetrieved {
		return nil, ErrFutureAlreadyRetrieved
	}
	p.futureRetrieved = true
	return &Future[T]{state: p.state}, nil
}

// IsValid reports whether the promise has not yet been fulfilled.
func (p *Promise[T]) IsValid() bool {
	return p != nil && p.state.Valid()
}

// SetSuccess fulfills the promise with value.
func (p *Promise[T]) SetSuccess(value T) error {
	return p.Set(result.Success(value))
}

// SetFailure fulfills the promise with a failure.
func (p *Promise[T]) SetFailure(err error) error {
	return p.Set(result.Failure[T](err))
}

// Set fulfills the promise with an already-computed Attempt.
func (p *Promise[T]) Set(value result.Attempt[T]) error {
	if !p.IsValid() {
		return ErrBadPromise
	}
	err := p.state.Push(value)
	p.state.Reset()
	runtime.SetFinalizer(p, nil)
	return err
}

// Discard immediately fails the paired future with ErrBrokenPromise instead
// of waiting for this promise to be garbage collected, and cancels the
// finalizer backstop — the explicit counterpart of letting a promise drop
// out of scope unfulfilled.
func (p *Promise[T]) Discard() error {
	if !p.IsValid() {
		return ErrBadPromise
	}
	err := p.state.PushFailure(ErrBrokenPromise)
	p.state.Reset()
	runtime.SetFinalizer(p, nil)
	return err
}
