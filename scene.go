package herobg

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	eb "github.com/hajimehoshi/ebiten/v2"
	ebv "github.com/hajimehoshi/ebiten/v2/vector"

	fl "herobg/frameloop"
)

const (
	KnotP        = 2
	KnotQ        = 3
	KnotRadius   = 1.0
	KnotSegments = 240

	CameraDistance = 6.0
	// degrees
	CameraFovY = 48.0
	CameraNear = 0.1
	CameraFar  = 100.0

	// how far the knot leans toward the pointer, in radians
	KnotParallax = 0.35
	// in logical pixels
	KnotLineWidth = 2.0
)

// TorusKnotPoint returns the point at t on a (p, q) torus knot
// wound around a torus of the given radius.
func TorusKnotPoint(t float64, p, q int, radius float64) mgl32.Vec3 {
	cu := math.Cos(t)
	su := math.Sin(t)
	quOverP := f64(q) / f64(p) * t
	cs := math.Cos(quOverP)

	return mgl32.Vec3{
		f32(radius * (2 + cs) * 0.5 * cu),
		f32(radius * (2 + cs) * su * 0.5),
		f32(radius * math.Sin(quOverP) * 0.5),
	}
}

// TorusKnot samples the whole knot. The curve closes after p turns.
func TorusKnot(segments, p, q int, radius float64) []mgl32.Vec3 {
	points := make([]mgl32.Vec3, segments)
	for i := range points {
		t := f64(i) / f64(segments) * f64(p) * math.Pi * 2
		points[i] = TorusKnotPoint(t, p, q, radius)
	}
	return points
}

// Camera returns the view and projection of a camera at (0, 0, CameraDistance)
// looking down -Z at a width x height target.
func Camera(width, height int) (view, proj mgl32.Mat4) {
	aspect := f32(f64(max(width, 1)) / f64(max(height, 1)))

	view = mgl32.Translate3D(0, 0, -CameraDistance)
	proj = mgl32.Perspective(mgl32.DegToRad(CameraFovY), aspect, CameraNear, CameraFar)

	return view, proj
}

// KnotModel spins the knot around Y and leans it by tilt.
func KnotModel(rotation float64, tilt fl.FPoint) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(f32(rotation + tilt.Y)).Mul4(mgl32.HomogRotate3DX(f32(tilt.X)))
}

// Project maps v to pixel coordinates on a width x height target, y down.
// Returns false for points behind the near plane.
func Project(v mgl32.Vec3, modelview, proj mgl32.Mat4, width, height int) (fl.FPoint, bool) {
	if width <= 0 || height <= 0 {
		return fl.FPoint{}, false
	}

	eye := modelview.Mul4x1(v.Vec4(1))
	if -eye.Z() < CameraNear {
		return fl.FPoint{}, false
	}

	win := mgl32.Project(v, modelview, proj, 0, 0, width, height)

	return fl.FPt(f64(win.X()), f64(height)-f64(win.Y())), true
}

func f64[N int | float32](n N) float64 {
	return float64(n)
}

type HeroScene struct {
	Palette Palette

	// radians per second
	KnotSpin float64

	knot []mgl32.Vec3

	rotation  float64
	tilt      fl.FPoint
	knotColor color.NRGBA
	uniforms  map[string]any

	vs []eb.Vertex
	is []uint16
}

func NewHeroScene(palette Palette, knotSpin float64) *HeroScene {
	s := new(HeroScene)
	s.Palette = palette
	s.KnotSpin = knotSpin
	s.knot = TorusKnot(KnotSegments, KnotP, KnotQ, KnotRadius)
	s.knotColor = palette[3]
	s.uniforms = make(map[string]any)
	return s
}

func (s *HeroScene) Update(f *fl.Frame) {
	s.rotation = math.Mod(f.Elapsed*s.KnotSpin, math.Pi*2)

	s.tilt = fl.FPt(
		(f.Pointer.Y-0.5)*KnotParallax*2,
		(f.Pointer.X-0.5)*KnotParallax*2,
	)

	s.knotColor = LerpColorRGB(s.Palette[2], s.Palette[3], f.Pointer.X)
}

func (s *HeroScene) Rotation() float64 {
	return s.rotation
}

func (s *HeroScene) Tilt() fl.FPoint {
	return s.tilt
}

func (s *HeroScene) KnotColor() color.NRGBA {
	return s.knotColor
}

// KnotScreenPoints returns the projected knot for a width x height target.
// Points behind the camera are dropped.
func (s *HeroScene) KnotScreenPoints(width, height int) []fl.FPoint {
	view, proj := Camera(width, height)
	modelview := view.Mul4(KnotModel(s.rotation, s.tilt))

	points := make([]fl.FPoint, 0, len(s.knot))
	for _, v := range s.knot {
		if pt, ok := Project(v, modelview, proj, width, height); ok {
			points = append(points, pt)
		}
	}
	return points
}

func (s *HeroScene) Draw(dst *eb.Image, shader *eb.Shader, f fl.Frame) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	// ==========================
	// background
	// ==========================
	if shader != nil {
		s.uniforms["Time"] = f.Elapsed
		s.uniforms["Pointer"] = [2]float64{f.Pointer.X, f.Pointer.Y}
		s.uniforms["PointerVelocity"] = [2]float64{f.PointerVelocity.X, f.PointerVelocity.Y}
		s.uniforms["Colors"] = s.Palette.Uniform()
		s.uniforms["Resolution"] = [2]float64{f64(w), f64(h)}

		op := &DrawRectShaderOptions{}
		op.Uniforms = s.uniforms

		DrawRectShader(dst, w, h, shader, op)
	} else {
		dst.Fill(s.Palette[0])
	}

	// ==========================
	// knot
	// ==========================
	points := s.KnotScreenPoints(w, h)
	if len(points) < 2 {
		return
	}

	var path ebv.Path
	path.MoveTo(f32(points[0].X), f32(points[0].Y))
	for _, pt := range points[1:] {
		path.LineTo(f32(pt.X), f32(pt.Y))
	}
	path.Close()

	s.vs, s.is = StrokePath(dst, &path, KnotLineWidth*f.QualityScale, s.knotColor, s.vs, s.is)
}

// DrawStaticFallback is what's shown when the loop never started.
func DrawStaticFallback(dst *eb.Image, palette Palette) {
	dst.Fill(palette[0])
}
