package herobg

import (
	"context"
	"errors"
	"math"
	"time"

	fl "herobg/frameloop"
	"herobg/misc"
)

// HeadlessConfig controls the no-window runner.
type HeadlessConfig struct {
	Hz int
	// 0 runs until ctx is done
	Frames uint64
	// simulated cost of each frame
	RenderCost time.Duration

	Width, Height int

	// seconds per pointer orbit, 0 leaves the pointer in the center
	PointerOrbit float64
}

func (h HeadlessConfig) withDefaults() HeadlessConfig {
	if h.Hz <= 0 {
		h.Hz = 60
	}
	if h.Width <= 0 {
		h.Width = 1280
	}
	if h.Height <= 0 {
		h.Height = 720
	}
	return h
}

// RunHeadless drives the render loop without a window, against a surface
// that draws nothing. Useful for watching the quality scale adapt.
func RunHeadless(ctx context.Context, cfg Config, h HeadlessConfig) (fl.LoopStats, error) {
	if err := cfg.Validate(); err != nil {
		return fl.LoopStats{}, err
	}
	h = h.withDefaults()

	palette, err := ParsePalette(cfg.Palette)
	if err != nil {
		return fl.LoopStats{}, err
	}

	clock := fl.NewSystemClock()
	frames := new(fl.FrameQueue)
	surface := fl.NewNullSurface(h.RenderCost)

	loop := fl.NewRenderLoop(fl.LoopOptions{
		Settings:  cfg.LoopSettings(1),
		Clock:     clock,
		Scheduler: frames,
		Scene:     NewHeroScene(palette, cfg.KnotSpin),
		Acquire: func() (fl.Surface, error) {
			return surface, nil
		},
	})
	defer loop.Dispose()

	loop.Resize(h.Width, h.Height)
	if err := loop.Start(); err != nil {
		return loop.Stats(), err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if h.PointerOrbit > 0 {
		go orbitPointer(ctx, loop, clock, h.PointerOrbit)
	}

	misc.InfoLogger.Printf("headless: %dx%d at %dhz, frame cost %v", h.Width, h.Height, h.Hz, h.RenderCost)

	_, err = fl.RunTicker(ctx, frames, clock, h.Hz, h.Frames)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	return loop.Stats(), err
}

// orbitPointer moves the pointer in a circle, the way a restless user would.
func orbitPointer(ctx context.Context, loop *fl.RenderLoop, clock fl.Clock, period float64) {
	t := time.NewTicker(time.Second / 30)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			phase := fl.DurationToSeconds(clock.Now()) / period * math.Pi * 2
			loop.OnPointerInput(0.5+math.Cos(phase)*0.35, 0.5+math.Sin(phase)*0.35)
		}
	}
}
