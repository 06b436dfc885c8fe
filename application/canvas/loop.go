package canvas

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "canvas-backend/pkg/errors"
)

// ErrLoopStopped is returned for work submitted after Stop.
var ErrLoopStopped = apperrors.NewUnavailableError("canvas loop").WithCode("LOOP_STOPPED")

// Loop runs every task on one goroutine, in submission order. All canvas
// state is touched only from inside tasks.
type Loop struct {
	tasks  chan func()
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewLoop creates and starts a loop with the given queue length.
func NewLoop(buffer int, logger *zap.Logger) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	l := &Loop{
		tasks:  make(chan func(), buffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case task := <-l.tasks:
			l.exec(task)
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("Canvas task panicked", zap.String("panic", fmt.Sprint(rec)), zap.Stack("stack"))
		}
	}()
	task()
}

// Do runs fn on the loop and waits for it to finish. If ctx is done before
// fn starts, fn is skipped and ctx.Err() returned. Once fn starts, Do waits
// for it regardless of ctx, so the caller never sees an error for work that
// went on to happen. It must not be called from inside a task.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	skipped := false
	wrapped := func() {
		defer close(finished)
		if ctx.Err() != nil {
			skipped = true
			return
		}
		fn()
	}

	select {
	case l.tasks <- wrapped:
	case <-l.quit:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		if skipped {
			return ctx.Err()
		}
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Post queues fn without waiting. It reports false once the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// After queues fn once d has elapsed. The work cannot be cancelled, so fn
// must check that whatever it touches still exists.
func (l *Loop) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { l.Post(fn) })
}

// Stop ends the loop after the running task. Queued tasks are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
