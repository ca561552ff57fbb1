package frameloop

import (
	"sync"
	"time"

	"herobg/misc"
)

// Clock reports monotonic time since the clock was created.
type Clock interface {
	Now() time.Duration
}

type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu      sync.RWMutex
	current time.Duration
}

func NewManualClock(start time.Duration) *ManualClock {
	return &ManualClock{current: start}
}

func (c *ManualClock) Now() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *ManualClock) Set(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

func (c *ManualClock) Advance(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current += d
	return c.current
}

func DurationToSeconds(d time.Duration) float64 {
	return f64(d) / f64(time.Second)
}

func DurationToMillis(d time.Duration) float64 {
	return f64(d) / f64(time.Millisecond)
}

// Timer for profiling.
// Usage :
//
//	{
//		timer := NewProfTimer("compile shader")
//		defer timer.Report()
//		// reports "compile shader" took 10ms
//	}
type ProfTimer struct {
	Start time.Time
	Name  string
}

func NewProfTimer(name string) ProfTimer {
	return ProfTimer{
		Start: time.Now(),
		Name:  name,
	}
}

func (p ProfTimer) Report() {
	now := time.Now()
	misc.InfoLogger.Printf("\"%v\" took %v\n", p.Name, now.Sub(p.Start))
}
