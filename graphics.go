package herobg

import (
	"image"
	"image/color"

	eb "github.com/hajimehoshi/ebiten/v2"
	ebv "github.com/hajimehoshi/ebiten/v2/vector"
)

var WhiteImage *eb.Image

func init() {
	whiteImg := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for x := range 3 {
		for y := range 3 {
			whiteImg.Set(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	wholeWhiteImage := eb.NewImageFromImage(whiteImg)
	WhiteImage = wholeWhiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*eb.Image)
}

func f32(f float64) float32 {
	return float32(f)
}

type DrawImageOptions struct {
	GeoM eb.GeoM

	ColorScale eb.ColorScale

	Filter eb.Filter
}

type DrawRectShaderOptions struct {
	GeoM eb.GeoM

	ColorScale eb.ColorScale

	Uniforms map[string]any

	Images [4]*eb.Image
}

func DrawImage(dst *eb.Image, src *eb.Image, options *DrawImageOptions) {
	if options == nil {
		options = &DrawImageOptions{}
	}
	op := &eb.DrawImageOptions{}
	op.GeoM = options.GeoM
	op.ColorScale = options.ColorScale
	op.Filter = options.Filter
	dst.DrawImage(src, op)
}

func DrawRectShader(
	dst *eb.Image,
	width, height int,
	shader *eb.Shader,
	options *DrawRectShaderOptions,
) {
	if options == nil {
		options = &DrawRectShaderOptions{}
	}
	op := &eb.DrawRectShaderOptions{}
	op.GeoM = options.GeoM
	op.ColorScale = options.ColorScale
	op.Uniforms = options.Uniforms
	op.Images = options.Images
	dst.DrawRectShader(width, height, shader, op)
}

func DrawFilledRect(
	dst *eb.Image,
	x, y, w, h float64,
	clr color.Color,
	antialias bool,
) {
	ebv.DrawFilledRect(
		dst,
		f32(x), f32(y), f32(w), f32(h),
		clr,
		antialias,
	)
}

// StrokePath strokes path with the given width and color.
// vs and is are reused buffers; the grown buffers are returned.
func StrokePath(
	dst *eb.Image,
	path *ebv.Path,
	strokeWidth float64,
	clr color.Color,
	vs []eb.Vertex, is []uint16,
) ([]eb.Vertex, []uint16) {
	strokeOp := &ebv.StrokeOptions{}
	strokeOp.Width = f32(strokeWidth)
	strokeOp.LineJoin = ebv.LineJoinRound
	strokeOp.LineCap = ebv.LineCapRound

	vs, is = path.AppendVerticesAndIndicesForStroke(vs[:0], is[:0], strokeOp)

	r, g, b, a := clr.RGBA()
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(r) / 0xffff
		vs[i].ColorG = float32(g) / 0xffff
		vs[i].ColorB = float32(b) / 0xffff
		vs[i].ColorA = float32(a) / 0xffff
	}

	op := &eb.DrawTrianglesOptions{}
	op.ColorScaleMode = eb.ColorScaleModePremultipliedAlpha
	op.AntiAlias = true
	dst.DrawTriangles(vs, is, WhiteImage, op)

	return vs, is
}
