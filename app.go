package herobg

import (
	"fmt"
	"math"
	"time"

	eb "github.com/hajimehoshi/ebiten/v2"

	fl "herobg/frameloop"
	"herobg/misc"
)

// App runs the hero background as an ebiten game.
type App struct {
	Config Config

	Scene   *HeroScene
	Loop    *fl.RenderLoop
	Frames  *fl.FrameQueue
	Clock   fl.Clock
	Surface *ShaderSurface

	Shader      Asset[[]byte]
	ShaderError error
	Watcher     *ShaderWatcher

	Badge *eb.Image

	Pointer   PointerTracker
	Debug     DebugConsole
	Clipboard ClipboardManager

	ShowDebugConsole bool
	takeScreenshot   bool

	screenWidth  int
	screenHeight int
}

func NewApp(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	palette, err := ParsePalette(cfg.Palette)
	if err != nil {
		return nil, err
	}

	a := new(App)
	a.Config = cfg
	a.Scene = NewHeroScene(palette, cfg.KnotSpin)
	a.Frames = new(fl.FrameQueue)
	a.Clock = fl.NewSystemClock()

	// ==========================
	// shader
	// ==========================
	a.Shader = LoadShaderSource(cfg.ShaderPath)
	if !a.Shader.Loaded() && cfg.ShaderPath != "" {
		misc.WarnLogger.Printf("using embedded shader: %v", a.Shader.Reason)
	}
	a.Debug.PutsPersist("shader", a.Shader.String())

	if cfg.HotReload && a.Shader.Loaded() {
		a.Watcher, err = NewShaderWatcher(cfg.ShaderPath)
		if err != nil {
			misc.WarnLogger.Printf("hot reload disabled: %v", err)
		}
	}

	// ==========================
	// badge
	// ==========================
	badge := LoadBadge(cfg.BadgePath)
	if badge.Loaded() {
		a.Badge = eb.NewImageFromImage(badge.Value)
	} else if cfg.BadgePath != "" {
		misc.WarnLogger.Printf("no badge: %v", badge.Reason)
	}

	a.Clipboard.Init()

	return a, nil
}

// startLoop waits for the first Layout, when the monitor's scale is known.
func (a *App) startLoop(deviceScale float64) {
	a.Loop = fl.NewRenderLoop(fl.LoopOptions{
		Settings:  a.Config.LoopSettings(deviceScale),
		Clock:     a.Clock,
		Scheduler: a.Frames,
		Scene:     a.Scene,
		Acquire: func() (fl.Surface, error) {
			surface, err := NewShaderSurface(a.Shader.Value, a.Scene)
			if err != nil {
				return nil, err
			}
			a.Surface = surface
			return surface, nil
		},
	})

	if err := a.Loop.Start(); err != nil {
		misc.ErrLogger.Printf("%v, drawing static background", err)
		a.Debug.PutsPersist("loop", "failed")
	}
}

func deviceScaleFactor() float64 {
	if m := eb.Monitor(); m != nil {
		return m.DeviceScaleFactor()
	}
	return 1
}

// ReloadShader reads the shader file again. Does nothing without a surface.
func (a *App) ReloadShader() {
	shader := LoadShaderSource(a.Config.ShaderPath)
	if !shader.Loaded() {
		a.ShaderError = shader.Reason
		misc.WarnLogger.Printf("shader reload skipped: %v", shader.Reason)
		return
	}
	a.applyShader(shader)
}

func (a *App) applyShader(shader Asset[[]byte]) {
	if a.Surface == nil {
		return
	}

	if err := a.Surface.SetShader(shader.Value); err != nil {
		a.ShaderError = err
		misc.ErrLogger.Printf("failed to compile %s: %v", shader.Source, err)
		return
	}

	a.Shader = shader
	a.ShaderError = nil
	misc.InfoLogger.Printf("reloaded shader from %s", shader.Source)
}

// PastePalette replaces the palette with four comma separated colors from
// the clipboard. Anything else leaves the palette alone.
func (a *App) PastePalette() {
	text := a.Clipboard.ReadText()
	if text == "" {
		return
	}

	strs, err := SplitPalette(text)
	if err == nil {
		var palette Palette
		palette, err = ParsePalette(strs)
		if err == nil {
			a.Scene.Palette = palette
			a.Config.Palette = strs
			misc.InfoLogger.Printf("pasted palette %v", strs)
			return
		}
	}

	misc.WarnLogger.Printf("clipboard has no palette: %v", err)
}

func (a *App) Update() error {
	a.Debug.Clear()

	fpsStr := fmt.Sprintf("%.2f", eb.ActualFPS())
	tpsStr := fmt.Sprintf("%.2f", eb.ActualTPS())

	// ==========================
	// update windows title
	// ==========================
	eb.SetWindowTitle("herobg FPS: " + fpsStr + " TPS: " + tpsStr)

	// ==========================
	// hotkeys
	// ==========================
	if IsKeyJustPressed(ShowDebugConsoleKey) {
		a.ShowDebugConsole = !a.ShowDebugConsole
	}

	if IsKeyJustPressed(ReloadShaderKey) {
		a.ReloadShader()
	}

	if IsKeyJustPressed(FullscreenKey) {
		eb.SetFullscreen(!eb.IsFullscreen())
	}

	if IsKeyJustPressed(PastePaletteKey) {
		a.PastePalette()
	}

	if IsKeyJustPressed(ScreenshotKey) {
		a.takeScreenshot = true
	}

	if IsKeyJustPressed(CopyStatsKey) && a.Loop != nil {
		a.Clipboard.WriteText(a.Loop.Stats().String())
	}

	// ==========================
	// shader hot reload
	// ==========================
	if a.Watcher != nil {
		select {
		case src := <-a.Watcher.Changes():
			a.applyShader(LoadedAsset(src, a.Config.ShaderPath))
		default:
		}
	}

	// ==========================
	// pointer
	// ==========================
	if a.Loop != nil {
		if pos, ok := a.Pointer.Update(a.screenWidth, a.screenHeight); ok {
			a.Loop.OnPointerInput(pos.X, pos.Y)
		}
	}

	// ==========================
	// DebugPrint
	// ==========================
	a.Debug.Puts("FPS", fpsStr)
	a.Debug.Puts("TPS", tpsStr)
	if a.Loop != nil {
		stats := a.Loop.Stats()
		a.Debug.Printf("scale", "%.3f [%.2f, %.2f]", stats.QualityScale, stats.MinScale, stats.BaseScale)
		a.Debug.Printf("avg frame", "%.2fms", fl.DurationToMillis(stats.LastAverage))
		a.Debug.Printf("target", "%dx%d", stats.Width, stats.Height)
	}
	if a.ShaderError != nil {
		a.Debug.Puts("shader error", a.ShaderError.Error())
	}

	return nil
}

func (a *App) Draw(dst *eb.Image) {
	if a.Loop == nil || !a.Loop.Running() || a.Surface == nil {
		DrawStaticFallback(dst, a.Scene.Palette)
	} else {
		a.Frames.Fire(a.Clock.Now())
		a.Surface.Present(dst)
	}

	if a.Badge != nil {
		a.drawBadge(dst)
	}

	// before the debug console so it doesn't end up in the picture
	if a.takeScreenshot {
		a.takeScreenshot = false
		path, err := SaveScreenshot(a.Config.ScreenshotDir, ImageImageFromEbImage(dst), time.Now())
		if err != nil {
			misc.ErrLogger.Printf("failed to take screenshot: %v", err)
		} else {
			misc.InfoLogger.Printf("saved screenshot to %s", path)
		}
	}

	if a.ShowDebugConsole {
		a.Debug.Draw(dst)
	}
}

func (a *App) drawBadge(dst *eb.Image) {
	const margin = 24

	bh := a.Badge.Bounds().Dy()
	dh := dst.Bounds().Dy()

	scale := deviceScaleFactor()

	op := &DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(margin*scale, f64(dh)-(f64(bh)+margin)*scale)
	op.Filter = eb.FilterLinear

	DrawImage(dst, a.Badge, op)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := deviceScaleFactor()

	if a.Loop == nil {
		a.startLoop(scale)
	}

	a.Loop.Resize(outsideWidth, outsideHeight)

	a.screenWidth = int(math.Ceil(f64(outsideWidth) * scale))
	a.screenHeight = int(math.Ceil(f64(outsideHeight) * scale))

	return a.screenWidth, a.screenHeight
}

// Close stops the loop and the shader watcher.
func (a *App) Close() {
	if a.Loop != nil {
		a.Loop.Dispose()
	}
	a.Frames.Close()
	if a.Watcher != nil {
		a.Watcher.Close()
	}
}
