package frameloop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type FrameFunc func(now time.Duration)

// Scheduler runs a callback on the next display frame.
// At most one callback is pending; requesting again replaces it.
type Scheduler interface {
	RequestFrame(fn FrameFunc)
	CancelFrame()
}

// FrameQueue is a Scheduler fired by whoever owns the display refresh:
// ebiten's Draw in window mode, RunTicker in headless mode.
type FrameQueue struct {
	mu      sync.Mutex
	pending FrameFunc
	closed  bool
	firing  bool
}

func (q *FrameQueue) RequestFrame(fn FrameFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.pending = fn
}

func (q *FrameQueue) CancelFrame() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = nil
}

// Close cancels the pending frame and ignores every later request.
func (q *FrameQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.pending = nil
}

func (q *FrameQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.pending != nil
}

// Fire runs the pending callback, if any, and reports whether it ran.
// The callback is taken off the queue before it runs, so it can only
// schedule the following frame. Calls from inside a callback do nothing.
func (q *FrameQueue) Fire(now time.Duration) bool {
	q.mu.Lock()
	if q.firing || q.pending == nil {
		q.mu.Unlock()
		return false
	}
	fn := q.pending
	q.pending = nil
	q.firing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.firing = false
		q.mu.Unlock()
	}()

	fn(now)

	return true
}

// RunTicker fires q at hz frames per second until ctx is done, maxFrames
// frames ran (0 = no limit) or nothing is left to fire.
func RunTicker(ctx context.Context, q *FrameQueue, clock Clock, hz int, maxFrames uint64) (uint64, error) {
	if hz <= 0 {
		return 0, fmt.Errorf("invalid tick rate: %d", hz)
	}

	t := time.NewTicker(time.Second / time.Duration(hz))
	defer t.Stop()

	var frames uint64
	for {
		if maxFrames > 0 && frames >= maxFrames {
			return frames, nil
		}
		if !q.Pending() {
			return frames, nil
		}

		select {
		case <-ctx.Done():
			return frames, ctx.Err()
		case <-t.C:
			if q.Fire(clock.Now()) {
				frames++
			}
		}
	}
}
