package session

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopClosed is returned when posting to a loop that has stopped.
var ErrLoopClosed = errors.New("event loop closed")

// Loop runs posted functions one at a time, in the order they were posted.
// It is the single event-processing thread of a session: handlers run to
// completion and never observe a half-applied update.
type Loop struct {
	queue     chan func()
	quit      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to size pending functions.
func NewLoop(size int) *Loop {
	if size < 1 {
		size = 1
	}
	return &Loop{
		queue: make(chan func(), size),
		quit:  make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and fails once the
// loop is closed. Posting from inside a running handler is allowed as long
// as the queue has room.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	select {
	case <-l.quit:
		return ErrLoopClosed
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.quit:
		return ErrLoopClosed
	}
}

// Do posts fn and waits until it has run.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return ErrLoopClosed
	}
}

// Run processes posted functions until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Close stops the loop. Functions still queued are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.quit) })
}
