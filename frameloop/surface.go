package frameloop

import (
	"sync"
	"time"
)

// Frame is everything a surface needs to draw one frame.
type Frame struct {
	Index uint64

	// physical size of the render target
	Width, Height int

	LogicalWidth, LogicalHeight int

	QualityScale float64

	// seconds
	Elapsed float64
	Delta   float64

	// normalized to [0, 1]
	Pointer         FPoint
	PointerVelocity FPoint
}

// Scene holds the caller's time-varying parameters.
// Update runs once per frame, right before the frame is rendered.
type Scene interface {
	Update(f *Frame)
}

// Surface is the drawing target the loop renders into.
type Surface interface {
	// SetSize sets the physical size in pixels.
	SetSize(width, height int)
	Render(f Frame)
	Release()
}

// NullSurface draws nothing. It keeps count of what it was asked to do,
// optionally pretending every frame costs RenderCost.
type NullSurface struct {
	RenderCost time.Duration

	mu        sync.Mutex
	frames    uint64
	last      Frame
	width     int
	height    int
	resizes   int
	releases  int
	sleepFunc func(time.Duration)
}

func NewNullSurface(renderCost time.Duration) *NullSurface {
	return &NullSurface{
		RenderCost: renderCost,
		sleepFunc:  time.Sleep,
	}
}

func (s *NullSurface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width, s.height = width, height
	s.resizes++
}

func (s *NullSurface) Render(f Frame) {
	s.mu.Lock()
	s.frames++
	s.last = f
	cost := s.RenderCost
	sleep := s.sleepFunc
	s.mu.Unlock()

	if cost > 0 && sleep != nil {
		sleep(cost)
	}
}

func (s *NullSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releases++
}

func (s *NullSurface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *NullSurface) LastFrame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *NullSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *NullSurface) Resizes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resizes
}

func (s *NullSurface) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}
