package frameloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameQueueLatestRequestWins(t *testing.T) {
	var q FrameQueue
	var got []string

	q.RequestFrame(func(time.Duration) { got = append(got, "first") })
	q.RequestFrame(func(time.Duration) { got = append(got, "second") })

	assert.True(t, q.Fire(0))
	assert.Equal(t, []string{"second"}, got)

	assert.False(t, q.Fire(0), "nothing left to fire")
}

func TestFrameQueuePassesTime(t *testing.T) {
	var q FrameQueue
	var got time.Duration

	q.RequestFrame(func(now time.Duration) { got = now })
	q.Fire(42 * time.Millisecond)

	assert.Equal(t, 42*time.Millisecond, got)
}

func TestFrameQueueCancel(t *testing.T) {
	var q FrameQueue
	ran := false

	q.RequestFrame(func(time.Duration) { ran = true })
	q.CancelFrame()

	assert.False(t, q.Pending())
	assert.False(t, q.Fire(0))
	assert.False(t, ran)
}

func TestFrameQueueClose(t *testing.T) {
	var q FrameQueue

	q.RequestFrame(func(time.Duration) {})
	q.Close()
	assert.False(t, q.Pending())

	q.RequestFrame(func(time.Duration) {})
	assert.False(t, q.Pending(), "requests after Close are ignored")
}

func TestFrameQueueCallbackSchedulesNext(t *testing.T) {
	var q FrameQueue
	count := 0

	var tick FrameFunc
	tick = func(time.Duration) {
		count++
		assert.False(t, q.Fire(0), "fire from inside a callback")
		q.RequestFrame(tick)
	}
	q.RequestFrame(tick)

	for i := 0; i < 3; i++ {
		require.True(t, q.Fire(0))
	}

	assert.Equal(t, 3, count)
	assert.True(t, q.Pending())
}

func TestRunTickerStopsAtFrameLimit(t *testing.T) {
	var q FrameQueue
	clock := NewManualClock(0)

	var tick FrameFunc
	tick = func(time.Duration) { q.RequestFrame(tick) }
	q.RequestFrame(tick)

	frames, err := RunTicker(context.Background(), &q, clock, 1000, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), frames)
}

func TestRunTickerStopsWhenIdle(t *testing.T) {
	var q FrameQueue
	count := 0
	q.RequestFrame(func(time.Duration) { count++ })

	frames, err := RunTicker(context.Background(), &q, NewManualClock(0), 1000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frames)
	assert.Equal(t, 1, count)
}

func TestRunTickerCancel(t *testing.T) {
	var q FrameQueue

	var tick FrameFunc
	tick = func(time.Duration) { q.RequestFrame(tick) }
	q.RequestFrame(tick)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := RunTicker(ctx, &q, NewSystemClock(), 1000, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunTickerInvalidRate(t *testing.T) {
	var q FrameQueue
	_, err := RunTicker(context.Background(), &q, NewManualClock(0), 0, 0)
	assert.Error(t, err)
}
