// Package resource holds process-lifetime connection handles that are opened
// on first use and shared by every caller afterwards.
package resource

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

var ErrClosed = errors.New("resource: closed")

// Lazy opens its value once. Concurrent first callers wait on the same open;
// a failed open is not cached, so the next Acquire tries again.
type Lazy[T any] struct {
	open  func(context.Context) (T, error)
	close func(T) error

	group singleflight.Group

	mu      sync.Mutex
	value   T
	ready   bool
	closed  bool
	refs    int
	drained chan struct{}
}

func New[T any](open func(context.Context) (T, error), close func(T) error) *Lazy[T] {
	return &Lazy[T]{open: open, close: close}
}

// Ready wraps an already opened value. Close on the handle is a no-op for it.
func Ready[T any](value T) *Lazy[T] {
	return &Lazy[T]{value: value, ready: true}
}

// Acquire returns the shared value and a release func that must be called once
// the caller is done with it.
func (l *Lazy[T]) Acquire(ctx context.Context) (T, func(), error) {
	var zero T

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return zero, func() {}, ErrClosed
	}
	if l.ready {
		l.refs++
		v := l.value
		l.mu.Unlock()
		return v, l.releaser(), nil
	}
	l.mu.Unlock()

	// The open outlives the request that triggered it.
	openCtx := context.WithoutCancel(ctx)
	_, err, _ := l.group.Do("open", func() (any, error) {
		l.mu.Lock()
		done := l.ready || l.closed
		l.mu.Unlock()
		if done {
			return nil, nil
		}

		v, err := l.open(openCtx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			if l.close != nil {
				_ = l.close(v)
			}
			return nil, ErrClosed
		}
		l.value = v
		l.ready = true
		return nil, nil
	})
	if err != nil {
		return zero, func() {}, err
	}
	return l.Acquire(ctx)
}

// With runs fn with the shared value, releasing it afterwards.
func (l *Lazy[T]) With(ctx context.Context, fn func(T) error) error {
	v, release, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(v)
}

func (l *Lazy[T]) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.refs--
			if l.refs == 0 && l.drained != nil {
				close(l.drained)
				l.drained = nil
			}
		})
	}
}

// Close rejects new acquisitions, waits for outstanding ones and closes the
// value. If ctx ends first the value is closed anyway and ctx's error returned.
func (l *Lazy[T]) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	var wait chan struct{}
	if l.refs > 0 {
		wait = make(chan struct{})
		l.drained = wait
	}
	l.mu.Unlock()

	var waitErr error
	if wait != nil {
		select {
		case <-wait:
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready || l.close == nil {
		return waitErr
	}
	l.ready = false
	return errors.Join(waitErr, l.close(l.value))
}
