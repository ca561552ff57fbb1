package herobg

import (
	eb "github.com/hajimehoshi/ebiten/v2"
	ebi "github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	ShowDebugConsoleKey eb.Key = eb.KeyF1

	ReloadShaderKey eb.Key = eb.KeyF5
	CopyStatsKey    eb.Key = eb.KeyF6
	PastePaletteKey eb.Key = eb.KeyF7

	FullscreenKey eb.Key = eb.KeyF11
	ScreenshotKey eb.Key = eb.KeyF12
)

func IsKeyJustPressed(key eb.Key) bool {
	return ebi.IsKeyJustPressed(key)
}
