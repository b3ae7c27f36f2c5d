package job

import (
	"context"
	"errors"
)

// Handle is a completion handle. The zero Handle is already complete.
type Handle struct {
	s *state
}

type state struct {
	done chan struct{}
	err  error
}

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func newState() *state {
	return &state{done: make(chan struct{})}
}

func (s *state) finish(err error) {
	s.err = err
	close(s.done)
}

// Completed returns a handle that is already complete.
func Completed() Handle {
	return Handle{}
}

// Done returns a channel that is closed when the work has completed.
func (h Handle) Done() <-chan struct{} {
	if h.s == nil {
		return closed
	}
	return h.s.done
}

// IsCompleted reports whether the work has completed, without blocking.
func (h Handle) IsCompleted() bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}

// Complete blocks until the work has completed and returns its error.
func (h Handle) Complete() error {
	<-h.Done()
	return h.Err()
}

// Wait blocks until the work has completed or ctx is done.
// A ctx error does not cancel the work.
func (h Handle) Wait(ctx context.Context) error {
	select {
	case <-h.Done():
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error of completed work, nil while it is still running.
func (h Handle) Err() error {
	if h.s == nil || !h.IsCompleted() {
		return nil
	}
	return h.s.err
}

// Combine returns a handle that completes when every handle in hs has completed.
// Its error joins the errors of hs.
func Combine(hs ...Handle) Handle {
	pending := make([]Handle, 0, len(hs))
	for _, h := range hs {
		if h.s != nil {
			pending = append(pending, h)
		}
	}
	switch len(pending) {
	case 0:
		return Completed()
	case 1:
		return pending[0]
	}

	s := newState()
	go func() {
		var errs []error
		for _, h := range pending {
			if err := h.Complete(); err != nil {
				errs = append(errs, err)
			}
		}
		s.finish(errors.Join(errs...))
	}()
	return Handle{s: s}
}

// Schedule runs fn once all deps have completed and returns its handle.
// fn runs even if a dependency failed; the returned handle then reports both errors.
func Schedule(fn func() error, deps ...Handle) Handle {
	dep := Combine(deps...)
	s := newState()
	go func() {
		depErr := dep.Complete()
		s.finish(errors.Join(depErr, fn()))
	}()
	return Handle{s: s}
}

// Func returns a handle and the function that completes it, for work driven
// by code outside this package.
func Func() (Handle, func(error)) {
	s := newState()
	return Handle{s: s}, s.finish
}
