package frameloop

import (
	"math"

	"golang.org/x/exp/constraints"
)

func f64[N constraints.Integer | constraints.Float](n N) float64 {
	return float64(n)
}

// =================================
// FPoint
// =================================

type FPoint struct {
	X, Y float64
}

func FPt(x, y float64) FPoint {
	return FPoint{X: x, Y: y}
}

func (p FPoint) Add(q FPoint) FPoint {
	p.X += q.X
	p.Y += q.Y
	return p
}

func (p FPoint) Sub(q FPoint) FPoint {
	p.X -= q.X
	p.Y -= q.Y
	return p
}

func (p FPoint) Mul(q FPoint) FPoint {
	p.X *= q.X
	p.Y *= q.Y
	return p
}

func (p FPoint) Scale(s float64) FPoint {
	p.X *= s
	p.Y *= s
	return p
}

func (p FPoint) Eq(q FPoint) bool {
	return p.X == q.X && p.Y == q.Y
}

func (p FPoint) LengthSquared() float64 {
	return p.X*p.X + p.Y*p.Y
}

func (p FPoint) Length() float64 {
	return math.Sqrt(p.LengthSquared())
}

// =================================
// misc
// =================================

func Lerp[F constraints.Float](a, b, t F) F {
	return a + (b-a)*t
}

func Clamp[N constraints.Integer | constraints.Float](n, minN, maxN N) N {
	n = min(n, maxN)
	n = max(n, minN)

	return n
}

// FrameRateIndependent converts a per-frame factor tuned at 60 frames per
// second into the factor for a step of dt seconds.
func FrameRateIndependent(factor, dt float64) float64 {
	return math.Pow(factor, dt*60)
}
