package frameloop

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScene struct {
	frames []Frame
}

func (s *recordingScene) Update(f *Frame) {
	s.frames = append(s.frames, *f)
}

type loopHarness struct {
	loop    *RenderLoop
	queue   *FrameQueue
	clock   *ManualClock
	surface *NullSurface
	scene   *recordingScene
}

func newLoopHarness(t *testing.T, settings Settings) *loopHarness {
	t.Helper()

	h := &loopHarness{
		queue:   new(FrameQueue),
		clock:   NewManualClock(0),
		surface: NewNullSurface(0),
		scene:   new(recordingScene),
	}
	h.loop = NewRenderLoop(LoopOptions{
		Settings:  settings,
		Clock:     h.clock,
		Scheduler: h.queue,
		Scene:     h.scene,
		Acquire: func() (Surface, error) {
			return h.surface, nil
		},
	})
	require.NoError(t, h.loop.Start())

	return h
}

// step advances the clock by dt and fires the pending frame.
func (h *loopHarness) step(t *testing.T, dt time.Duration) {
	t.Helper()
	h.clock.Advance(dt)
	require.True(t, h.queue.Fire(h.clock.Now()), "no frame pending")
}

func TestStartSchedulesFirstFrame(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())

	assert.True(t, h.loop.Running())
	assert.True(t, h.queue.Pending())

	h.step(t, 0)
	assert.Equal(t, uint64(1), h.surface.Frames())
	assert.True(t, h.queue.Pending(), "tick must schedule the next frame")

	require.Len(t, h.scene.frames, 1)
	assert.Equal(t, 0.0, h.scene.frames[0].Elapsed)
	assert.Equal(t, FPt(0.5, 0.5), h.scene.frames[0].Pointer)
}

func TestQualityScaleStaysInBounds(t *testing.T) {
	settings := DefaultSettings()
	settings.BaseScale = 1.5
	settings.MinScale = 0.5

	h := newLoopHarness(t, settings)

	for i := 0; i < 100; i++ {
		h.loop.AdaptQuality(80 * time.Millisecond)
		scale := h.loop.State().QualityScale
		require.GreaterOrEqual(t, scale, settings.MinScale)
		require.LessOrEqual(t, scale, settings.BaseScale)
	}
	assert.Equal(t, settings.MinScale, h.loop.State().QualityScale)
	assert.False(t, h.loop.AdaptQuality(80*time.Millisecond), "already at the floor")

	for i := 0; i < 100; i++ {
		h.loop.AdaptQuality(time.Millisecond)
		scale := h.loop.State().QualityScale
		require.GreaterOrEqual(t, scale, settings.MinScale)
		require.LessOrEqual(t, scale, settings.BaseScale)
	}
	assert.Equal(t, settings.BaseScale, h.loop.State().QualityScale)
	assert.False(t, h.loop.AdaptQuality(time.Millisecond), "already at the ceiling")
}

func TestMinScaleAboveBaseScaleIsClamped(t *testing.T) {
	settings := DefaultSettings()
	settings.BaseScale = 0.5
	settings.MinScale = 0.8

	h := newLoopHarness(t, settings)
	assert.Equal(t, 0.5, h.loop.Settings().MinScale)

	h.loop.AdaptQuality(time.Second)
	assert.Equal(t, 0.5, h.loop.State().QualityScale)
}

func TestAdaptQualityHysteresis(t *testing.T) {
	settings := DefaultSettings()
	settings.TargetFrameTime = 20 * time.Millisecond
	settings.RecoverRatio = 0.75

	h := newLoopHarness(t, settings)

	// exactly on budget is not over budget
	assert.False(t, h.loop.AdaptQuality(20*time.Millisecond))
	assert.Equal(t, 1.0, h.loop.State().QualityScale)

	assert.True(t, h.loop.AdaptQuality(21*time.Millisecond))
	lowered := h.loop.State().QualityScale
	assert.InDelta(t, 0.85, lowered, 1e-9)

	// between the recover threshold and the budget nothing moves
	assert.False(t, h.loop.AdaptQuality(18*time.Millisecond))
	// exactly on the recover threshold is not under it
	assert.False(t, h.loop.AdaptQuality(15*time.Millisecond))
	assert.Equal(t, lowered, h.loop.State().QualityScale)

	assert.True(t, h.loop.AdaptQuality(14*time.Millisecond))
	assert.InDelta(t, 0.85*1.05, h.loop.State().QualityScale, 1e-9)
}

func TestEvaluationWindowAdaptsAndResizes(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())
	h.loop.Resize(800, 600)

	h.step(t, 0)
	for i := 0; i < 19; i++ {
		h.step(t, 50*time.Millisecond)
	}
	assert.Equal(t, uint64(0), h.loop.Stats().Windows)
	assert.Equal(t, 19, h.loop.State().FrameCountSinceCheck)

	h.step(t, 50*time.Millisecond)

	stats := h.loop.Stats()
	assert.Equal(t, uint64(1), stats.Windows)
	assert.Equal(t, uint64(1), stats.Adaptations)
	assert.Equal(t, 50*time.Millisecond, stats.LastAverage)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, stats.RecentAverages)
	assert.InDelta(t, 0.85, stats.QualityScale, 1e-9)

	state := h.loop.State()
	assert.Zero(t, state.FrameTimeAccumulator)
	assert.Zero(t, state.FrameCountSinceCheck)

	w, hgt := h.surface.Size()
	assert.Equal(t, 680, w)
	assert.Equal(t, 510, hgt)

	// the frame after the adaptation renders at the new size
	h.step(t, 16*time.Millisecond)
	last := h.surface.LastFrame()
	assert.Equal(t, 680, last.Width)
	assert.Equal(t, 800, last.LogicalWidth)
}

func TestFrameDeltaIsCapped(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())

	h.step(t, 0)
	assert.Zero(t, h.loop.State().LastDelta)

	h.step(t, 5000*time.Millisecond)

	state := h.loop.State()
	assert.Equal(t, 100*time.Millisecond, state.LastDelta)
	assert.InDelta(t, 0.1, state.Elapsed, 1e-9)
	assert.Equal(t, 100*time.Millisecond, state.FrameTimeAccumulator)
	assert.InDelta(t, 0.1, h.surface.LastFrame().Delta, 1e-9)
}

func TestClockGoingBackwardsIsZeroDelta(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())

	h.clock.Set(time.Second)
	h.step(t, 0)
	h.clock.Set(500 * time.Millisecond)
	require.True(t, h.queue.Fire(h.clock.Now()))

	state := h.loop.State()
	assert.Zero(t, state.LastDelta)
	assert.Zero(t, state.FrameCountSinceCheck)
}

func TestPointerSmoothingIsMonotonic(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())
	h.step(t, 0)

	h.loop.OnPointerInput(1, 0)

	prev := h.loop.State().PointerCurrent
	for i := 0; i < 600; i++ {
		h.step(t, 16*time.Millisecond)

		cur := h.loop.State().PointerCurrent
		require.GreaterOrEqual(t, cur.X, prev.X, "frame %d", i)
		require.LessOrEqual(t, cur.X, 1.0, "frame %d", i)
		require.LessOrEqual(t, cur.Y, prev.Y, "frame %d", i)
		require.GreaterOrEqual(t, cur.Y, 0.0, "frame %d", i)
		prev = cur
	}

	assert.InDelta(t, 1, prev.X, 0.01)
	assert.InDelta(t, 0, prev.Y, 0.01)
}

func TestPointerSmoothingIsFrameRateIndependent(t *testing.T) {
	fast := newLoopHarness(t, DefaultSettings())
	slow := newLoopHarness(t, DefaultSettings())

	fast.step(t, 0)
	slow.step(t, 0)
	fast.loop.OnPointerInput(1, 0.5)
	slow.loop.OnPointerInput(1, 0.5)

	for i := 0; i < 20; i++ {
		fast.step(t, time.Second/60)
	}
	for i := 0; i < 10; i++ {
		slow.step(t, time.Second/30)
	}

	// roughly the same distance after a third of a second
	fx := fast.loop.State().PointerCurrent.X
	sx := slow.loop.State().PointerCurrent.X
	assert.Greater(t, fx, 0.8)
	assert.Less(t, fx, 1.0)
	assert.InDelta(t, fx, sx, 0.05)
}

func TestPointerInputLatestWins(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())

	h.loop.OnPointerInput(0.2, 0.3)
	h.loop.OnPointerInput(0.9, 1.7)
	assert.Equal(t, FPt(0.9, 1), h.loop.PointerTarget())

	h.loop.OnPointerInput(-3, 0.4)
	assert.Equal(t, FPt(0, 0.4), h.loop.PointerTarget())

	h.loop.OnPointerInput(math.NaN(), 0.1)
	assert.Equal(t, FPt(0, 0.4), h.loop.PointerTarget())
}

func TestResizeIsIdempotent(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())

	h.loop.Resize(800, 600)
	resizes := h.surface.Resizes()

	w, hgt := h.surface.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, hgt)

	h.loop.Resize(800, 600)
	assert.Equal(t, resizes, h.surface.Resizes())

	pw, ph := h.loop.PhysicalSize()
	assert.Equal(t, 800, pw)
	assert.Equal(t, 600, ph)
}

func TestPhysicalSizeNeverEmpty(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())

	h.loop.Resize(0, 0)
	w, hgt := h.loop.PhysicalSize()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, hgt)

	h.loop.Resize(-10, 3)
	lw, lh := h.loop.LogicalSize()
	assert.Equal(t, 0, lw)
	assert.Equal(t, 3, lh)
}

func TestDisposeIsTerminal(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())
	h.step(t, 0)
	require.True(t, h.queue.Pending())

	h.loop.Dispose()

	assert.True(t, h.loop.Disposed())
	assert.False(t, h.loop.Running())
	assert.False(t, h.queue.Pending())
	assert.False(t, h.queue.Fire(h.clock.Advance(time.Second)))
	assert.Equal(t, 1, h.surface.Releases())

	h.loop.Tick(h.clock.Advance(time.Second))
	assert.Equal(t, uint64(1), h.surface.Frames())
	assert.False(t, h.queue.Pending())

	h.loop.Dispose()
	assert.Equal(t, 1, h.surface.Releases())

	assert.ErrorIs(t, h.loop.Start(), ErrLoopDisposed)

	resizes := h.surface.Resizes()
	h.loop.Resize(1024, 768)
	assert.Equal(t, resizes, h.surface.Resizes())
}

// disposingScene disposes its loop from inside Update on frame disposeAt.
type disposingScene struct {
	loop      *RenderLoop
	disposeAt uint64
	updates   int
}

func (s *disposingScene) Update(f *Frame) {
	s.updates++
	if f.Index == s.disposeAt {
		s.loop.Dispose()
	}
}

func TestDisposeFromSceneSkipsRender(t *testing.T) {
	queue := new(FrameQueue)
	clock := NewManualClock(0)
	surface := NewNullSurface(0)
	scene := &disposingScene{disposeAt: 2}

	loop := NewRenderLoop(LoopOptions{
		Clock:     clock,
		Scheduler: queue,
		Scene:     scene,
		Acquire: func() (Surface, error) {
			return surface, nil
		},
	})
	scene.loop = loop
	require.NoError(t, loop.Start())

	for queue.Fire(clock.Advance(16 * time.Millisecond)) {
	}

	assert.Equal(t, 3, scene.updates)
	assert.Equal(t, uint64(2), surface.Frames(), "released surface must not render")
	assert.Equal(t, 1, surface.Releases())
	assert.False(t, queue.Pending())
	assert.True(t, loop.Disposed())
}

func TestStartFailureIsReportedOnce(t *testing.T) {
	cause := errors.New("no gpu")
	calls := 0
	q := new(FrameQueue)

	l := NewRenderLoop(LoopOptions{
		Scheduler: q,
		Acquire: func() (Surface, error) {
			calls++
			return nil, cause
		},
	})

	err := l.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSurfaceUnavailable)
	assert.ErrorIs(t, err, cause)

	select {
	case <-l.Failed():
	default:
		t.Fatal("Failed should be closed")
	}

	assert.Equal(t, err, l.Start())
	assert.Equal(t, 1, calls)
	assert.False(t, l.Running())
	assert.False(t, q.Pending())
	assert.Equal(t, err, l.Err())

	// dispose after a failed start must not panic
	l.Dispose()
}

func TestStartWithoutProvider(t *testing.T) {
	l := NewRenderLoop(LoopOptions{})
	assert.ErrorIs(t, l.Start(), ErrSurfaceUnavailable)

	l = NewRenderLoop(LoopOptions{
		Acquire: func() (Surface, error) { return nil, nil },
	})
	assert.ErrorIs(t, l.Start(), ErrSurfaceUnavailable)
}

func TestSettingsDefaultsFillInvalidFields(t *testing.T) {
	s := Settings{Smoothing: 2, VelocityDecay: 1, GrowthFactor: 0.5}.withDefaults()
	d := DefaultSettings()

	assert.Equal(t, d, s)

	s = Settings{Smoothing: 1}.withDefaults()
	assert.Equal(t, d.Smoothing, s.Smoothing)
}

func TestStatsString(t *testing.T) {
	h := newLoopHarness(t, DefaultSettings())
	h.loop.Resize(640, 480)
	h.step(t, 0)

	str := h.loop.Stats().String()
	assert.Contains(t, str, "scale: 1.000 [0.60, 1.00]")
	assert.Contains(t, str, "target: 640x480 (logical 640x480)")
	assert.Contains(t, str, "frames: 1")
}

func TestQualityScaleSettles(t *testing.T) {
	settings := Settings{
		BaseScale:          2,
		MinScale:           0.5,
		TargetFrameTime:    20 * time.Millisecond,
		EvaluationInterval: 100 * time.Millisecond,
		MaxFrameDelta:      100 * time.Millisecond,
		DecayFactor:        0.85,
		GrowthFactor:       1.05,
		RecoverRatio:       0.75,
	}

	h := newLoopHarness(t, settings)
	h.step(t, 0)

	// frame cost follows the pixel count, with a millisecond of jitter
	// either way
	cost := func(scale float64, window int) time.Duration {
		d := time.Duration(float64(8*time.Millisecond) * scale * scale)
		if window%2 == 0 {
			return d + time.Millisecond
		}
		return d - time.Millisecond
	}

	var scales []float64
	for w := 0; w < 12; w++ {
		windows := h.loop.Stats().Windows
		dt := cost(h.loop.State().QualityScale, w)
		for h.loop.Stats().Windows == windows {
			h.step(t, dt)
		}
		scales = append(scales, h.loop.State().QualityScale)
	}

	for i := 1; i < len(scales); i++ {
		require.LessOrEqual(t, scales[i], scales[i-1], "scale grew at window %d: %v", i, scales)
	}
	for i := 5; i < len(scales); i++ {
		require.Equal(t, scales[4], scales[i], "scale still moving at window %d: %v", i, scales)
	}
	assert.InDelta(t, 2*0.85*0.85, scales[len(scales)-1], 1e-9)
	assert.Equal(t, uint64(2), h.loop.Stats().Adaptations)

	// averages on the budget and on the recover threshold move nothing
	settled := h.loop.State().QualityScale
	for w, dt := range []time.Duration{20, 15, 20, 19, 15, 16} {
		windows := h.loop.Stats().Windows
		for h.loop.Stats().Windows == windows {
			h.step(t, dt*time.Millisecond)
		}
		require.Equal(t, settled, h.loop.State().QualityScale, "window %d", w)
	}
}
