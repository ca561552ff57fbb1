package herobg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadShaderSourceFallbacks(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.kage")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	cases := map[string]struct {
		path string
		want error
	}{
		"no path":      {"", ErrNoResourcePath},
		"missing file": {filepath.Join(dir, "missing.kage"), ErrMissingFile},
		"empty file":   {empty, ErrEmptyResource},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			asset := LoadShaderSource(c.path)

			assert.False(t, asset.Loaded())
			assert.ErrorIs(t, asset.Reason, c.want)
			assert.Equal(t, DefaultShaderSource, asset.Value)
			assert.Contains(t, asset.String(), "fallback")
		})
	}
}

func TestLoadShaderSourceDirectory(t *testing.T) {
	asset := LoadShaderSource(t.TempDir())

	assert.False(t, asset.Loaded())
	assert.Error(t, asset.Reason)
}

func TestLoadShaderSourceFromFile(t *testing.T) {
	src := "//kage:unit pixels\npackage main\n"
	path := writeTestFile(t, "hero.kage", src)

	asset := LoadShaderSource(path)

	require.True(t, asset.Loaded())
	assert.Equal(t, []byte(src), asset.Value)
	assert.Equal(t, path, asset.Source)
	assert.Equal(t, "loaded from "+path, asset.String())
}

func TestEmbeddedShaderIsKage(t *testing.T) {
	assert.Contains(t, string(DefaultShaderSource), "//kage:unit pixels")
	assert.Contains(t, string(DefaultShaderSource), "func Fragment")
}

func TestLoadBadge(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{255, 0, 0, 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := writeTestFile(t, "badge.png", buf.String())

	asset := LoadBadge(path)

	require.True(t, asset.Loaded())
	assert.Equal(t, image.Rect(0, 0, 4, 3), asset.Value.Bounds())
}

func TestLoadBadgeUndecodable(t *testing.T) {
	path := writeTestFile(t, "badge.png", "not an image")

	asset := LoadBadge(path)

	assert.False(t, asset.Loaded())
	assert.Nil(t, asset.Value)
	assert.ErrorIs(t, asset.Reason, image.ErrFormat)
}

func TestLoadBadgeNoPath(t *testing.T) {
	asset := LoadBadge("")

	assert.ErrorIs(t, asset.Reason, ErrNoResourcePath)
	assert.Nil(t, asset.Value)
}
