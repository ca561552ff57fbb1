package herobg

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	css "github.com/mazznoer/csscolorparser"

	fl "herobg/frameloop"
)

// Palette feeds the background shader's color ramp.
// The first color doubles as the static fallback color.
type Palette [4]color.NRGBA

var DefaultPaletteStrings = [4]string{
	"#0b0a12",
	"#3a1c71",
	"#d76d77",
	"#ffaf7b",
}

func ColorNormalized(clr color.Color, multiplyAlpha bool) [4]float64 {
	c := ColorToNRGBA(clr)
	r, g, b, a := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255

	if multiplyAlpha {
		r *= a
		g *= a
		b *= a
	}

	return [4]float64{r, g, b, a}
}

func ColorToNRGBA(clr color.Color) color.NRGBA {
	if clr == nil {
		return color.NRGBA{}
	}
	return color.NRGBAModel.Convert(clr).(color.NRGBA)
}

func LerpColorRGB(c1, c2 color.Color, t float64) color.NRGBA {
	c1f := ColorNormalized(c1, false)
	c2f := ColorNormalized(c2, false)

	t = fl.Clamp(t, 0, 1)

	r := fl.Lerp(c1f[0], c2f[0], t)
	g := fl.Lerp(c1f[1], c2f[1], t)
	b := fl.Lerp(c1f[2], c2f[2], t)

	return color.NRGBA{
		uint8(math.Round(r * 255)),
		uint8(math.Round(g * 255)),
		uint8(math.Round(b * 255)),
		255,
	}
}

func ColorToString(clr color.Color) string {
	c := ColorToNRGBA(clr)
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func ParseColorString(str string) (color.NRGBA, error) {
	c, err := css.Parse(str)

	if err != nil {
		return color.NRGBA{}, err
	}

	nrgba := color.NRGBA{
		R: uint8(math.Round(255 * c.R)),
		G: uint8(math.Round(255 * c.G)),
		B: uint8(math.Round(255 * c.B)),
		A: uint8(math.Round(255 * c.A)),
	}

	return nrgba, nil
}

func ParsePalette(strs [4]string) (Palette, error) {
	var p Palette
	for i, str := range strs {
		c, err := ParseColorString(str)
		if err != nil {
			return Palette{}, fmt.Errorf("palette color %d %q: %w", i, str, err)
		}
		p[i] = c
	}
	return p, nil
}

// SplitPalette splits a comma separated list of exactly four colors.
func SplitPalette(str string) ([4]string, error) {
	var strs [4]string

	parts := strings.Split(str, ",")
	if len(parts) != len(strs) {
		return strs, fmt.Errorf("want %d colors, got %d", len(strs), len(parts))
	}
	for i, part := range parts {
		strs[i] = strings.TrimSpace(part)
	}

	return strs, nil
}

// Uniform packs the palette the way the shader's Colors uniform expects it.
func (p Palette) Uniform() [16]float64 {
	var u [16]float64
	for i, c := range p {
		n := ColorNormalized(c, true)
		copy(u[i*4:], n[:])
	}
	return u
}
