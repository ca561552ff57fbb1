package frameloop

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"herobg/misc"
)

var (
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
	ErrLoopDisposed       = errors.New("render loop disposed")
)

const averageHistorySize = 16

// RenderState is owned by the loop.
// Only PointerTarget is written from outside, through OnPointerInput.
type RenderState struct {
	// seconds since the first frame
	Elapsed float64

	PointerTarget   FPoint
	PointerCurrent  FPoint
	PointerVelocity FPoint

	QualityScale float64

	FrameTimeAccumulator time.Duration
	FrameCountSinceCheck int

	// capped delta of the last frame
	LastDelta time.Duration
}

// Settings tunes the loop. Zero fields fall back to DefaultSettings.
type Settings struct {
	// bounds of the quality scale
	BaseScale float64
	MinScale  float64

	TargetFrameTime    time.Duration
	EvaluationInterval time.Duration
	// dt is capped to this, so a stalled tab doesn't lurch forward
	MaxFrameDelta time.Duration

	// pointer inertia, both tuned per 60fps frame
	Smoothing     float64
	VelocityDecay float64

	DecayFactor  float64
	GrowthFactor float64
	// the scale only grows when the average beats TargetFrameTime*RecoverRatio
	RecoverRatio float64

	LogAdaptation bool
}

func DefaultSettings() Settings {
	return Settings{
		BaseScale: 1,
		MinScale:  0.6,

		TargetFrameTime:    22 * time.Millisecond,
		EvaluationInterval: time.Second,
		MaxFrameDelta:      100 * time.Millisecond,

		Smoothing:     0.08,
		VelocityDecay: 0.85,

		DecayFactor:  0.85,
		GrowthFactor: 1.05,
		RecoverRatio: 0.75,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()

	if s.BaseScale <= 0 {
		s.BaseScale = d.BaseScale
	}
	if s.MinScale <= 0 {
		s.MinScale = d.MinScale
	}
	s.MinScale = min(s.MinScale, s.BaseScale)
	if s.TargetFrameTime <= 0 {
		s.TargetFrameTime = d.TargetFrameTime
	}
	if s.EvaluationInterval <= 0 {
		s.EvaluationInterval = d.EvaluationInterval
	}
	if s.MaxFrameDelta <= 0 {
		s.MaxFrameDelta = d.MaxFrameDelta
	}
	if s.Smoothing <= 0 || s.Smoothing >= 1 {
		s.Smoothing = d.Smoothing
	}
	if s.VelocityDecay < 0 || s.VelocityDecay >= 1 {
		s.VelocityDecay = d.VelocityDecay
	}
	if s.DecayFactor <= 0 || s.DecayFactor >= 1 {
		s.DecayFactor = d.DecayFactor
	}
	if s.GrowthFactor <= 1 {
		s.GrowthFactor = d.GrowthFactor
	}
	if s.RecoverRatio <= 0 || s.RecoverRatio > 1 {
		s.RecoverRatio = d.RecoverRatio
	}

	return s
}

type LoopOptions struct {
	Settings Settings

	Clock     Clock
	Scheduler Scheduler
	Scene     Scene

	// Acquire returns the surface to draw into. Called once, by Start.
	Acquire func() (Surface, error)
}

type RenderLoop struct {
	cfg Settings

	clock     Clock
	scheduler Scheduler
	scene     Scene
	acquire   func() (Surface, error)

	surface Surface

	state RenderState

	pointerMu     sync.Mutex
	pointerTarget FPoint

	hasLastFrame  bool
	lastFrameTime time.Duration

	logicalWidth, logicalHeight   int
	physicalWidth, physicalHeight int

	frameIndex  uint64
	windows     uint64
	adaptations uint64
	lastAverage time.Duration
	averages    CircularQueue[time.Duration]

	startErr error
	failed   chan struct{}

	disposed    atomic.Bool
	disposeOnce sync.Once
}

func NewRenderLoop(opts LoopOptions) *RenderLoop {
	l := new(RenderLoop)

	l.cfg = opts.Settings.withDefaults()

	l.clock = opts.Clock
	if l.clock == nil {
		l.clock = NewSystemClock()
	}
	l.scheduler = opts.Scheduler
	if l.scheduler == nil {
		l.scheduler = new(FrameQueue)
	}
	l.scene = opts.Scene
	l.acquire = opts.Acquire

	l.state.QualityScale = l.cfg.BaseScale
	l.state.PointerCurrent = FPt(0.5, 0.5)
	l.pointerTarget = FPt(0.5, 0.5)

	l.averages = NewCircularQueue[time.Duration](averageHistorySize)
	l.failed = make(chan struct{})

	return l
}

// Settings returns the settings in use, defaults filled in.
func (l *RenderLoop) Settings() Settings {
	return l.cfg
}

// Start acquires the surface and schedules the first frame.
//
// If the surface can't be acquired, Failed is closed and the loop never
// runs. There is no retry: later calls return the same error.
func (l *RenderLoop) Start() error {
	if l.disposed.Load() {
		return ErrLoopDisposed
	}
	if l.startErr != nil {
		return l.startErr
	}
	if l.surface != nil {
		return nil
	}

	var surface Surface
	var err error

	if l.acquire == nil {
		err = errors.New("no surface provider")
	} else {
		surface, err = l.acquire()
		if err == nil && surface == nil {
			err = errors.New("surface provider returned nil")
		}
	}

	if err != nil {
		l.startErr = fmt.Errorf("%w: %w", ErrSurfaceUnavailable, err)
		close(l.failed)
		return l.startErr
	}

	l.surface = surface
	l.physicalWidth, l.physicalHeight = 0, 0
	l.applySize()

	l.scheduler.RequestFrame(l.Tick)

	return nil
}

// Failed is closed when Start could not acquire a surface.
func (l *RenderLoop) Failed() <-chan struct{} {
	return l.failed
}

func (l *RenderLoop) Err() error {
	return l.startErr
}

func (l *RenderLoop) Running() bool {
	return l.surface != nil && !l.disposed.Load()
}

// OnPointerInput records the latest pointer position, clamped to [0, 1].
// Safe to call from any goroutine.
func (l *RenderLoop) OnPointerInput(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}

	l.pointerMu.Lock()
	defer l.pointerMu.Unlock()

	l.pointerTarget = FPt(Clamp(x, 0, 1), Clamp(y, 0, 1))
}

func (l *RenderLoop) PointerTarget() FPoint {
	l.pointerMu.Lock()
	defer l.pointerMu.Unlock()

	return l.pointerTarget
}

// Tick runs one frame and schedules the next one.
func (l *RenderLoop) Tick(now time.Duration) {
	if l.disposed.Load() || l.surface == nil {
		return
	}

	s := &l.state

	// ==========================
	// time step
	// ==========================
	var dt time.Duration
	if l.hasLastFrame {
		dt = now - l.lastFrameTime
	}
	dt = Clamp(dt, 0, l.cfg.MaxFrameDelta)

	l.hasLastFrame = true
	l.lastFrameTime = now

	s.LastDelta = dt
	dtSec := DurationToSeconds(dt)
	s.Elapsed += dtSec

	// ==========================
	// pointer inertia
	// ==========================
	l.smoothPointer(l.PointerTarget(), dtSec)

	// ==========================
	// performance window
	// ==========================
	if dt > 0 {
		s.FrameTimeAccumulator += dt
		s.FrameCountSinceCheck++

		if s.FrameTimeAccumulator >= l.cfg.EvaluationInterval {
			avg := s.FrameTimeAccumulator / time.Duration(s.FrameCountSinceCheck)

			s.FrameTimeAccumulator = 0
			s.FrameCountSinceCheck = 0

			l.windows++
			l.AdaptQuality(avg)
		}
	}

	// ==========================
	// scene and render
	// ==========================
	frame := l.frame()
	if l.scene != nil {
		l.scene.Update(&frame)
	}
	// the scene may have disposed the loop, and with it the surface
	if l.disposed.Load() {
		return
	}
	l.surface.Render(frame)
	l.frameIndex++

	if !l.disposed.Load() {
		l.scheduler.RequestFrame(l.Tick)
	}
}

func (l *RenderLoop) smoothPointer(target FPoint, dt float64) {
	if dt <= 0 {
		return
	}

	s := &l.state

	alpha := 1 - FrameRateIndependent(1-l.cfg.Smoothing, dt)
	decay := FrameRateIndependent(l.cfg.VelocityDecay, dt)

	pull := target.Sub(s.PointerCurrent).Scale(alpha)
	s.PointerVelocity = s.PointerVelocity.Scale(decay).Add(pull.Scale(1 - decay))

	s.PointerCurrent.X, s.PointerVelocity.X = approach(s.PointerCurrent.X, s.PointerVelocity.X, target.X)
	s.PointerCurrent.Y, s.PointerVelocity.Y = approach(s.PointerCurrent.Y, s.PointerVelocity.Y, target.Y)
}

// approach moves current by velocity without passing target.
// Reaching the target stops the motion on that axis.
func approach(current, velocity, target float64) (float64, float64) {
	next := current + velocity
	if (target-current)*(target-next) <= 0 {
		return target, 0
	}
	return next, velocity
}

// AdaptQuality lowers the quality scale when avg is over budget and raises
// it when avg is comfortably under. Returns true if the scale changed.
func (l *RenderLoop) AdaptQuality(avg time.Duration) bool {
	s := &l.state

	l.lastAverage = avg
	l.averages.Enqueue(avg)

	old := s.QualityScale
	target := l.cfg.TargetFrameTime
	recoverBelow := f64(target) * l.cfg.RecoverRatio

	switch {
	case avg > target && s.QualityScale > l.cfg.MinScale:
		s.QualityScale = Clamp(s.QualityScale*l.cfg.DecayFactor, l.cfg.MinScale, l.cfg.BaseScale)
	case f64(avg) < recoverBelow && s.QualityScale < l.cfg.BaseScale:
		s.QualityScale = Clamp(s.QualityScale*l.cfg.GrowthFactor, l.cfg.MinScale, l.cfg.BaseScale)
	}

	if s.QualityScale == old {
		return false
	}

	l.adaptations++
	if l.cfg.LogAdaptation {
		misc.InfoLogger.Printf(
			"quality scale %.3f -> %.3f (avg frame %.2fms, budget %.2fms)",
			old, s.QualityScale, DurationToMillis(avg), DurationToMillis(target))
	}

	l.applySize()

	return true
}

// Resize sets the logical size. Calling it again with the same size
// changes nothing.
func (l *RenderLoop) Resize(width, height int) {
	l.logicalWidth = max(width, 0)
	l.logicalHeight = max(height, 0)

	l.applySize()
}

func (l *RenderLoop) applySize() {
	w, h := l.PhysicalSizeFor(l.logicalWidth, l.logicalHeight)
	if w == l.physicalWidth && h == l.physicalHeight {
		return
	}

	l.physicalWidth, l.physicalHeight = w, h

	if l.surface != nil && !l.disposed.Load() {
		l.surface.SetSize(w, h)
	}
}

// PhysicalSizeFor returns the render target size for a logical size at the
// current quality scale. Never smaller than 1x1.
func (l *RenderLoop) PhysicalSizeFor(width, height int) (int, int) {
	q := l.state.QualityScale
	w := int(math.Round(f64(width) * q))
	h := int(math.Round(f64(height) * q))
	return max(w, 1), max(h, 1)
}

func (l *RenderLoop) PhysicalSize() (int, int) {
	return l.physicalWidth, l.physicalHeight
}

func (l *RenderLoop) LogicalSize() (int, int) {
	return l.logicalWidth, l.logicalHeight
}

// Dispose stops the loop for good and releases the surface.
// Calling it again does nothing.
func (l *RenderLoop) Dispose() {
	l.disposeOnce.Do(func() {
		l.disposed.Store(true)
		l.scheduler.CancelFrame()
		if l.surface != nil {
			l.surface.Release()
		}
	})
}

func (l *RenderLoop) Disposed() bool {
	return l.disposed.Load()
}

// State returns a copy of the render state.
func (l *RenderLoop) State() RenderState {
	s := l.state
	s.PointerTarget = l.PointerTarget()
	return s
}

func (l *RenderLoop) frame() Frame {
	s := &l.state
	return Frame{
		Index: l.frameIndex,

		Width:  l.physicalWidth,
		Height: l.physicalHeight,

		LogicalWidth:  l.logicalWidth,
		LogicalHeight: l.logicalHeight,

		QualityScale: s.QualityScale,

		Elapsed: s.Elapsed,
		Delta:   DurationToSeconds(s.LastDelta),

		Pointer:         s.PointerCurrent,
		PointerVelocity: s.PointerVelocity,
	}
}

type LoopStats struct {
	QualityScale float64
	BaseScale    float64
	MinScale     float64

	LastAverage    time.Duration
	RecentAverages []time.Duration

	Frames      uint64
	Windows     uint64
	Adaptations uint64

	Width, Height               int
	LogicalWidth, LogicalHeight int
}

func (l *RenderLoop) Stats() LoopStats {
	return LoopStats{
		QualityScale: l.state.QualityScale,
		BaseScale:    l.cfg.BaseScale,
		MinScale:     l.cfg.MinScale,

		LastAverage:    l.lastAverage,
		RecentAverages: l.averages.Items(),

		Frames:      l.frameIndex,
		Windows:     l.windows,
		Adaptations: l.adaptations,

		Width:         l.physicalWidth,
		Height:        l.physicalHeight,
		LogicalWidth:  l.logicalWidth,
		LogicalHeight: l.logicalHeight,
	}
}

func (s LoopStats) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "scale: %.3f [%.2f, %.2f]\n", s.QualityScale, s.MinScale, s.BaseScale)
	fmt.Fprintf(&b, "avg frame: %.2fms\n", DurationToMillis(s.LastAverage))
	fmt.Fprintf(&b, "target: %dx%d (logical %dx%d)\n", s.Width, s.Height, s.LogicalWidth, s.LogicalHeight)
	fmt.Fprintf(&b, "frames: %d windows: %d adaptations: %d", s.Frames, s.Windows, s.Adaptations)

	return b.String()
}
