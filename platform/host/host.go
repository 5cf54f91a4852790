// Package host lazily creates and memoizes an expensive handle, such as an interpreter
// engine or a compiled plugin, so that concurrent callers share a single initialization.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robbyt/go-polygrade/internal/helpers"
)

// ErrInterpreterInitialization wraps every failure to produce a handle.
var ErrInterpreterInitialization = errors.New("interpreter initialization failed")

// State is the lifecycle stage of a Host.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initializing:
		return "Initializing"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Factory produces the handle. It is called at most once per initialization attempt.
type Factory[T any] func(ctx context.Context) (T, error)

// InitHook observes the outcome of every initialization attempt.
type InitHook func(err error, elapsed time.Duration)

// attempt is a single in-flight initialization shared by all waiters.
type attempt[T any] struct {
	done   chan struct{}
	handle T
	err    error
}

// Host holds at most one ready handle of type T.
type Host[T any] struct {
	name    string
	factory Factory[T]
	hook    InitHook
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	handle   T
	inflight *attempt[T]
}

// New returns a Host in the Uninitialized state. The name identifies the host in logs.
func New[T any](handler slog.Handler, name string, factory Factory[T]) *Host[T] {
	_, logger := helpers.SetupLogger(handler, "host", "Host")
	return &Host[T]{
		name:    name,
		factory: factory,
		logger:  logger.With("name", name),
	}
}

// OnInit registers a hook called after every initialization attempt.
func (h *Host[T]) OnInit(hook InitHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hook = hook
}

// Name returns the name given to New.
func (h *Host[T]) Name() string {
	return h.name
}

// State reports the current lifecycle stage.
func (h *Host[T]) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// EnsureReady returns the ready handle, starting initialization if none exists.
// Callers arriving while an attempt is in flight wait for that same attempt. A failed attempt
// is returned to all of its waiters and is not cached; the next call starts over.
// Cancelling ctx abandons the wait but not the attempt.
func (h *Host[T]) EnsureReady(ctx context.Context) (T, error) {
	h.mu.Lock()
	if h.state == Ready {
		handle := h.handle
		h.mu.Unlock()
		return handle, nil
	}

	a := h.inflight
	if a == nil {
		a = &attempt[T]{done: make(chan struct{})}
		h.inflight = a
		h.state = Initializing
		go h.run(context.WithoutCancel(ctx), a)
	}
	h.mu.Unlock()

	select {
	case <-a.done:
		return a.handle, a.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (h *Host[T]) run(ctx context.Context, a *attempt[T]) {
	logger := h.logger.WithGroup("run")
	logger.DebugContext(ctx, "initialization started")
	start := time.Now()

	handle, err := h.invoke(ctx)
	elapsed := time.Since(start)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrInterpreterInitialization, h.name, err)
		logger.ErrorContext(ctx, "initialization failed", "error", err, "elapsed", elapsed)
	} else {
		logger.DebugContext(ctx, "initialization complete", "elapsed", elapsed)
	}

	h.mu.Lock()
	a.handle, a.err = handle, err
	if err != nil {
		h.state = Failed
	} else {
		h.state = Ready
		h.handle = handle
	}
	h.inflight = nil
	hook := h.hook
	h.mu.Unlock()

	close(a.done)
	if hook != nil {
		hook(err, elapsed)
	}
}

// invoke calls the factory, converting a panic into an error.
func (h *Host[T]) invoke(ctx context.Context) (handle T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during initialization: %v", r)
		}
	}()
	return h.factory(ctx)
}

// Reset drops the ready handle so that the next EnsureReady initializes again.
// An attempt already in flight is unaffected.
func (h *Host[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight != nil {
		return
	}
	var zero T
	h.handle = zero
	h.state = Uninitialized
}
