package concurrent

import (
	"fmt"

	"github.com/flightvars/fdmqtt/result"
)

// safeCall invokes f and turns any panic into a failed Attempt[U], the
// translation of the source's "exceptions inside f become failures" rule
// into a language with panics instead of exceptions.
func safeCall[T, U any](value T, f func(T) U) (out result.Attempt[U]) {
	defer func() {
		if rec := recover(); rec != nil {
			out = result.Failure[U](toError(rec))
		}
	}()
	return result.Success(f(value))
}

func toError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("concurrent: panic in future callback: %v", rec)
}

// Then chains fn to run (on exec) once f completes successfully, mapping its
// value into a U. A failed f is propagated to the resulting future without
// invoking fn. Consumes f.
func Then[T, U any](f *Future[T], fn func(T) U, exec Executor) *Future[U] {
	p := NewPromise[U]()
	out, _ := p.GetFuture()
	err := f.onReady(func(a result.Attempt[T]) {
		exec.Execute(func() {
			if a.IsFailure() {
				_, ferr := a.Get()
				_ = p.SetFailure(ferr)
				return
			}
			value, _ := a.Get()
			attempt := safeCall(value, fn)
			_ = p.Set(attempt)
		})
	})
	if err != nil {
		return FailedFuture[U](err)
	}
	return out
}

// Next chains fn to run (on exec) once f completes successfully; fn itself
// returns a future, so the resulting future completes when that inner future
// does (monadic bind). A failed f is propagated without invoking fn. Consumes f.
func Next[T, U any](f *Future[T], fn func(T) *Future[U], exec Executor) *Future[U] {
	p := NewPromise[U]()
	out, _ := p.GetFuture()
	err := f.onReady(func(a result.Attempt[T]) {
		exec.Execute(func() {
			if a.IsFailure() {
				_, ferr := a.Get()
				_ = p.SetFailure(ferr)
				return
			}
			value, _ := a.Get()

			inner, rec := safeCallFuture(value, fn)
			if rec != nil {
				_ = p.SetFailure(rec)
				return
			}
			innerErr := inner.onReady(func(innerAttempt result.Attempt[U]) {
				exec.Execute(func() { _ = p.Set(innerAttempt) })
			})
			if innerErr != nil {
				_ = p.SetFailure(innerErr)
			}
		})
	})
	if err != nil {
		return FailedFuture[U](err)
	}
	return out
}

// safeCallFuture invokes fn, recovering a panic into an error instead of a
// failed future (the future itself may not exist yet if fn panicked).
func safeCallFuture[T, U any](value T, fn func(T) *Future[U]) (fut *Future[U], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = toError(rec)
		}
	}()
	return fn(value), nil
}

// Finally runs fn (on exec) once f completes, regardless of outcome, and
// does not produce a new future. It returns ErrBadFuture only if f was
// already invalid when called; panics inside fn are not recovered because
// there is no downstream future to carry the failure — Finally is meant for
// fire-and-forget side effects such as cleanup and logging. Consumes f.
func Finally[T any](f *Future[T], fn func(result.Attempt[T]), exec Executor) error {
	return f.onReady(func(a result.Attempt[T]) {
		exec.Execute(func() { fn(a) })
	})
}
