package herobg

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	fl "herobg/frameloop"
)

var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration written as "22ms" in config files and flags.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) Set(str string) error {
	v, err := time.ParseDuration(str)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	return d.Set(string(text))
}

type Config struct {
	// upper bound of the quality scale, 0 picks the device scale capped at MaxAutoScale
	BaseScale float64 `toml:"base_scale"`
	MinScale  float64 `toml:"min_scale"`

	TargetFrameTime    Duration `toml:"target_frame_time"`
	EvaluationInterval Duration `toml:"evaluation_interval"`
	MaxFrameDelta      Duration `toml:"max_frame_delta"`

	// pointer inertia, both tuned per 60fps frame
	Smoothing     float64 `toml:"smoothing"`
	VelocityDecay float64 `toml:"velocity_decay"`

	DecayFactor  float64 `toml:"decay_factor"`
	GrowthFactor float64 `toml:"growth_factor"`
	// scale grows back only when the average is under TargetFrameTime*RecoverRatio
	RecoverRatio float64 `toml:"recover_ratio"`

	// radians per second, the knot used to turn 0.01 per frame
	KnotSpin float64   `toml:"knot_spin"`
	Palette  [4]string `toml:"palette"`

	ShaderPath string `toml:"shader_path"`
	BadgePath  string `toml:"badge_path"`
	HotReload  bool   `toml:"hot_reload"`

	ScreenshotDir string `toml:"screenshot_dir"`

	LogAdaptation bool `toml:"log_adaptation"`
}

const MaxAutoScale = 2

func DefaultConfig() Config {
	return Config{
		BaseScale: 0,
		MinScale:  0.6,

		TargetFrameTime:    Duration(22 * time.Millisecond),
		EvaluationInterval: Duration(time.Second),
		MaxFrameDelta:      Duration(100 * time.Millisecond),

		Smoothing:     0.08,
		VelocityDecay: 0.85,

		DecayFactor:  0.85,
		GrowthFactor: 1.05,
		RecoverRatio: 0.75,

		KnotSpin: 0.6,
		Palette:  DefaultPaletteStrings,

		ScreenshotDir: "screenshots",
	}
}

// LoadConfigFile reads a TOML file on top of base.
// Keys missing from the file keep base's values. In the browser build path
// is fetched relative to the page.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := readResource(path)
	if errors.Is(err, ErrEmptyResource) {
		return base, nil
	}
	if err != nil {
		return base, err
	}

	cfg := base
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) EncodeTOML() ([]byte, error) {
	return toml.Marshal(c)
}

// RegisterFlags binds c's fields to fs.
// Call it after loading the config file so flags override the file.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.BaseScale, "base-scale", c.BaseScale, "max render scale, 0 = device scale capped at 2")
	fs.Float64Var(&c.MinScale, "min-scale", c.MinScale, "min render scale")
	fs.Var(&c.TargetFrameTime, "target-frame-time", "frame time budget")
	fs.Var(&c.EvaluationInterval, "eval-interval", "how often frame times are averaged")
	fs.Var(&c.MaxFrameDelta, "max-frame-delta", "largest time step a single frame may take")
	fs.Float64Var(&c.Smoothing, "smoothing", c.Smoothing, "pointer smoothing per 60fps frame, in (0, 1)")
	fs.Float64Var(&c.VelocityDecay, "velocity-decay", c.VelocityDecay, "pointer velocity decay per 60fps frame")
	fs.Float64Var(&c.DecayFactor, "decay-factor", c.DecayFactor, "scale multiplier when frames are slow")
	fs.Float64Var(&c.GrowthFactor, "growth-factor", c.GrowthFactor, "scale multiplier when frames are fast")
	fs.Float64Var(&c.RecoverRatio, "recover-ratio", c.RecoverRatio, "fraction of the budget frames must beat to grow the scale")
	fs.Float64Var(&c.KnotSpin, "knot-spin", c.KnotSpin, "knot rotation in radians per second")
	fs.Func("palette", "four comma separated css colors", func(str string) error {
		strs, err := SplitPalette(str)
		if err != nil {
			return err
		}
		c.Palette = strs
		return nil
	})
	fs.StringVar(&c.ShaderPath, "shader", c.ShaderPath, "kage shader file, embedded shader when empty or missing")
	fs.StringVar(&c.BadgePath, "badge", c.BadgePath, "optional badge image drawn in the corner")
	fs.BoolVar(&c.HotReload, "hot", c.HotReload, "reload the shader when the file changes")
	fs.StringVar(&c.ScreenshotDir, "screenshot-dir", c.ScreenshotDir, "where screenshots are saved")
	fs.BoolVar(&c.LogAdaptation, "log-adapt", c.LogAdaptation, "log every quality scale change")
}

func (c Config) Validate() error {
	invalid := func(field string, format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
	}

	if c.BaseScale < 0 {
		return invalid("base_scale", "must not be negative, got %v", c.BaseScale)
	}
	if c.MinScale <= 0 {
		return invalid("min_scale", "must be positive, got %v", c.MinScale)
	}
	if c.BaseScale > 0 && c.MinScale > c.BaseScale {
		return invalid("min_scale", "%v is bigger than base_scale %v", c.MinScale, c.BaseScale)
	}
	if c.TargetFrameTime <= 0 {
		return invalid("target_frame_time", "must be positive")
	}
	if c.EvaluationInterval <= 0 {
		return invalid("evaluation_interval", "must be positive")
	}
	if c.MaxFrameDelta <= 0 {
		return invalid("max_frame_delta", "must be positive")
	}
	// 1 would snap the pointer to its target every frame
	if c.Smoothing <= 0 || c.Smoothing >= 1 {
		return invalid("smoothing", "must be in (0, 1), got %v", c.Smoothing)
	}
	if c.VelocityDecay < 0 || c.VelocityDecay >= 1 {
		return invalid("velocity_decay", "must be in [0, 1), got %v", c.VelocityDecay)
	}
	if c.DecayFactor <= 0 || c.DecayFactor >= 1 {
		return invalid("decay_factor", "must be in (0, 1), got %v", c.DecayFactor)
	}
	if c.GrowthFactor <= 1 {
		return invalid("growth_factor", "must be bigger than 1, got %v", c.GrowthFactor)
	}
	if c.RecoverRatio <= 0 || c.RecoverRatio > 1 {
		return invalid("recover_ratio", "must be in (0, 1], got %v", c.RecoverRatio)
	}
	if _, err := ParsePalette(c.Palette); err != nil {
		return invalid("palette", "%v", err)
	}

	return nil
}

// ResolveBaseScale returns the configured BaseScale, or deviceScale capped
// at MaxAutoScale when BaseScale is 0. Never smaller than MinScale.
func (c Config) ResolveBaseScale(deviceScale float64) float64 {
	scale := c.BaseScale
	if scale <= 0 {
		if deviceScale <= 0 {
			deviceScale = 1
		}
		scale = min(deviceScale, MaxAutoScale)
	}
	return max(scale, c.MinScale)
}

func (c Config) LoopSettings(deviceScale float64) fl.Settings {
	return fl.Settings{
		BaseScale: c.ResolveBaseScale(deviceScale),
		MinScale:  c.MinScale,

		TargetFrameTime:    c.TargetFrameTime.Std(),
		EvaluationInterval: c.EvaluationInterval.Std(),
		MaxFrameDelta:      c.MaxFrameDelta.Std(),

		Smoothing:     c.Smoothing,
		VelocityDecay: c.VelocityDecay,

		DecayFactor:  c.DecayFactor,
		GrowthFactor: c.GrowthFactor,
		RecoverRatio: c.RecoverRatio,

		LogAdaptation: c.LogAdaptation,
	}
}
