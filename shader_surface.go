package herobg

import (
	"image"

	eb "github.com/hajimehoshi/ebiten/v2"

	fl "herobg/frameloop"
)

type SceneDrawer interface {
	Draw(dst *eb.Image, shader *eb.Shader, f fl.Frame)
}

// ShaderSurface renders the scene into an offscreen target sized to the
// loop's physical resolution. Present stretches it over the screen.
type ShaderSurface struct {
	shader *eb.Shader
	drawer SceneDrawer

	target *eb.Image
	width  int
	height int

	released bool
}

// NewShaderSurface compiles src. A compile error means there is nothing
// to draw with.
func NewShaderSurface(src []byte, drawer SceneDrawer) (*ShaderSurface, error) {
	timer := fl.NewProfTimer("compile shader")
	defer timer.Report()

	shader, err := eb.NewShader(src)
	if err != nil {
		return nil, err
	}

	return &ShaderSurface{
		shader: shader,
		drawer: drawer,
	}, nil
}

// SetShader swaps in a new shader. On a compile error the current shader
// stays in use.
func (s *ShaderSurface) SetShader(src []byte) error {
	if s.released {
		return fl.ErrLoopDisposed
	}

	shader, err := eb.NewShader(src)
	if err != nil {
		return err
	}

	if s.shader != nil {
		s.shader.Deallocate()
	}
	s.shader = shader

	return nil
}

func (s *ShaderSurface) SetSize(width, height int) {
	if s.released {
		return
	}

	width, height = max(width, 1), max(height, 1)

	recreateRenderTarget := s.target == nil
	recreateRenderTarget = recreateRenderTarget || s.width != width
	recreateRenderTarget = recreateRenderTarget || s.height != height

	if !recreateRenderTarget {
		return
	}

	if s.target != nil {
		s.target.Deallocate()
	}
	s.target = eb.NewImageWithOptions(
		image.Rect(0, 0, width, height),
		&eb.NewImageOptions{Unmanaged: true},
	)
	s.width, s.height = width, height
}

func (s *ShaderSurface) Size() (int, int) {
	return s.width, s.height
}

func (s *ShaderSurface) Render(f fl.Frame) {
	if s.released || s.target == nil {
		return
	}

	s.target.Clear()
	s.drawer.Draw(s.target, s.shader, f)
}

// Present draws the last rendered frame over all of dst.
func (s *ShaderSurface) Present(dst *eb.Image) {
	if s.released || s.target == nil {
		return
	}

	dstW, dstH := dst.Bounds().Dx(), dst.Bounds().Dy()

	op := &DrawImageOptions{}
	op.GeoM.Scale(f64(dstW)/f64(s.width), f64(dstH)/f64(s.height))
	op.Filter = eb.FilterLinear

	DrawImage(dst, s.target, op)
}

func (s *ShaderSurface) Release() {
	if s.released {
		return
	}
	s.released = true

	if s.target != nil {
		s.target.Deallocate()
		s.target = nil
	}
	if s.shader != nil {
		s.shader.Deallocate()
		s.shader = nil
	}
}
