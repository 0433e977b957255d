// Package concurrent provides the asynchronous primitives the rest of the
// library is built on: a single-slot rendezvous cell (SharedState), the
// Promise/Future pair layered on top of it, composition combinators, and the
// single-threaded Reactor/Executor that serializes all of it.
package concurrent

import (
	"errors"
	"sync"

	"github.com/flightvars/fdmqtt/result"
)

// ErrBadSharedState is returned by operations on a SharedState whose core has
// been reset, the counterpart of the source's bad_shared_state.
var ErrBadSharedState = errors.New("concurrent: shared state is not valid")

// ErrHandlerAlreadySet is returned when installing a second push handler on
// the same core. A shared state is a single-consumer rendezvous: exactly one
// handler may ever observe the pushed value.
var ErrHandlerAlreadySet = errors.New("concurrent: push handler already installed")

// sharedStateCore is the reference-counted cell two or more SharedState
// values can point at. Only one of retained/pushHandler is ever populated at
// once, mirroring the invariant documented on the source type.
type sharedStateCore[T any] struct {
	mu             sync.Mutex
	retained       result.Option[result.Attempt[T]]
	pushHandler    func(result.Attempt[T])
	handlerWasSet  bool
}

// SharedState is a value-type handle onto a single-slot rendezvous cell. Two
// copies of a SharedState obtained by plain assignment point at the same
// core; Reset clears only the copy it is called on, leaving the core alive
// for any other holder — the Go analogue of the source's shared_ptr-backed
// reference semantics.
type SharedState[T any] struct {
	core *sharedStateCore[T]
}

// NewSharedState allocates a fresh, empty shared state.
func NewSharedState[T any]() SharedState[T] {
	return SharedState[T]{core: &sharedStateCore[T]{}}
}

// Valid reports whether this handle still refers to a live core.
func (s SharedState[T]) Valid() bool {
	return s.core != nil
}

// Reset detaches this handle from its core. Other copies of the same
// SharedState are unaffected.
func (s *SharedState[T]) Reset() {
	s.core = nil
}

func (s SharedState[T]) checkValid() error {
	if !s.Valid() {
		return ErrBadSharedState
	}
	return nil
}

// SetPushHandler installs f as the handler invoked the next time a value is
// pushed. If a value was already retained (pushed before any handler was
// installed), f is invoked immediately with that value, and the slot is
// cleared — matching the source's "push then late handler" rendezvous.
//
// The handler is invoked outside the core's lock so that a handler which
// itself touches this or a derived shared state synchronously cannot
// deadlock against a non-reentrant mutex.
func (s SharedState[T]) SetPushHandler(f func(result.Attempt[T])) error {
	if err := s.checkValid(); err != nil {
		return err
	}
	core := s.core

	core.mu.Lock()
	if core.handlerWasSet {
		core.mu.Unlock()
		return ErrHandlerAlreadySet
	}
	core.handlerWasSet = true
	retained, extractErr := core.retained.Extract()
	hadRetained := extractErr == nil
	if !hadRetained {
		core.pushHandler = f
	}
	core.mu.Unlock()

	if hadRetained {
		f(retained)
	}
	return nil
}

// ClearPushHandler removes any installed push handler without affecting a
// retained value.
func (s SharedState[T]) ClearPushHandler() error {
	if err := s.checkValid(); err != nil {
		return err
	}
	core := s.core
	core.mu.Lock()
	core.pushHandler = nil
	core.mu.Unlock()
	return nil
}

// Push delivers value to the installed handler, if any, or retains it for a
// handler installed later. At most one of retained/handler is populated.
func (s SharedState[T]) Push(value result.Attempt[T]) error {
	if err := s.checkValid(); err != nil {
		return err
	}
	core := s.core

	core.mu.Lock()
	handler := core.pushHandler
	if handler == nil {
		core.retained.Set(value)
	}
	core.mu.Unlock()

	if handler != nil {
		handler(value)
	}
	return nil
}

// PushSuccess is a convenience wrapper over Push for the success case.
func (s SharedState[T]) PushSuccess(value T) error {
	return s.Push(result.Success(value))
}

// PushFailure is a convenience wrapper over Push for the failure case.
func (s SharedState[T]) PushFailure(err error) error {
	return s.Push(result.Failure[T](err))
}
