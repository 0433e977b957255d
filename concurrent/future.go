package concurrent

import (
	"errors"
	"time"

	"github.com/flightvars/fdmqtt/result"
)

// ErrBadFuture is returned when operating on a future that is not valid, or
// whose single consumption (Wait/Get or a combinator) has already happened.
var ErrBadFuture = errors.New("concurrent: future is not valid")

// ErrFutureTimeout is returned by WaitFor when the timeout elapses before the
// future completes.
var ErrFutureTimeout = errors.New("concurrent: future wait timed out")

// Future is the read side of a Promise/Future pair. It is consumed exactly
// once: either by a blocking Wait/Get, or by exactly one combinator (Then,
// Next or Finally) that installs its own continuation. Consuming it twice
// returns ErrHandlerAlreadySet/ErrBadFuture.
type Future[T any] struct {
	state SharedState[T]
}

// SucceededFuture returns an already-completed, successful future — the
// counterpart of the source's make_future_success.
func SucceededFuture[T any](value T) *Future[T] {
	p := NewPromise[T]()
	f, _ := p.GetFuture()
	_ = p.SetSuccess(value)
	return f
}

// FailedFuture returns an already-completed, failed future — the counterpart
// of the source's make_future_failure.
func FailedFuture[T any](err error) *Future[T] {
	p := NewPromise[T]()
	f, _ := p.GetFuture()
	_ = p.SetFailure(err)
	return f
}

// IsValid reports whether the future has not yet been consumed.
func (f *Future[T]) IsValid() bool {
	return f != nil && f.state.Valid()
}

// onReady installs handler as the (single) completion callback for this
// future and invalidates the future handle, mirroring one-shot consumption.
func (f *Future[T]) onReady(handler func(result.Attempt[T])) error {
	if !f.IsValid() {
		return ErrBadFuture
	}
	err := f.state.SetPushHandler(handler)
	f.state.Reset()
	return err
}

// Wait blocks until the future completes and returns its outcome.
func (f *Future[T]) Wait() (result.Attempt[T], error) {
	done := make(chan result.Attempt[T], 1)
	if err := f.onReady(func(a result.Attempt[T]) { done <- a }); err != nil {
		var zero result.Attempt[T]
		return zero, err
	}
	return <-done, nil
}

// WaitFor blocks until the future completes or timeout elapses, whichever
// comes first. On timeout it returns ErrFutureTimeout; the future's eventual
// outcome, if any, is discarded by the still-pending handler.
func (f *Future[T]) WaitFor(timeout time.Duration) (result.Attempt[T], error) {
	done := make(chan result.Attempt[T], 1)
	if err := f.onReady(func(a result.Attempt[T]) { done <- a }); err != nil {
		var zero result.Attempt[T]
		return zero, err
	}
	select {
	case a := <-done:
		return a, nil
	case <-time.After(timeout):
		var zero result.Attempt[T]
		return zero, ErrFutureTimeout
	}
}

// Get blocks until the future completes and returns the success value, or
// the failure error (wrapping ErrAttemptInvalid only if the attempt itself
// was stateless, which should not happen for a well-formed promise).
func (f *Future[T]) Get() (T, error) {
	a, err := f.Wait()
	if err != nil {
		var zero T
		return zero, err
	}
	return a.Get()
}
