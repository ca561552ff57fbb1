package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	eb "github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"herobg"
	"herobg/misc"
)

const (
	WindowWidth  = 1280
	WindowHeight = 720
)

type cmdFlags struct {
	ConfigPath string
	DumpConfig bool

	Headless     bool
	Hz           int
	Frames       uint64
	SimulateCost time.Duration
	Width        int
	Height       int

	PProf bool
}

func (f *cmdFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "toml config file")
	fs.BoolVar(&f.DumpConfig, "dump-config", false, "print the resolved config as toml and exit")

	fs.BoolVar(&f.Headless, "headless", false, "run the loop without a window")
	fs.IntVar(&f.Hz, "hz", 60, "headless frame rate")
	fs.Uint64Var(&f.Frames, "frames", 0, "headless frame count, 0 runs until interrupted")
	fs.DurationVar(&f.SimulateCost, "simulate-cost", 0, "headless per frame render cost")
	fs.IntVar(&f.Width, "width", WindowWidth, "window or headless width")
	fs.IntVar(&f.Height, "height", WindowHeight, "window or headless height")

	fs.BoolVar(&f.PProf, "pprof", false, "enable pprof")
}

// configPathFromArgs finds -config before the full parse, so the file is
// loaded first and every other flag overrides it.
func configPathFromArgs(args []string) string {
	var f cmdFlags
	scratch := herobg.DefaultConfig()

	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f.register(fs)
	scratch.RegisterFlags(fs)
	fs.Parse(args)
	return f.ConfigPath
}

func main() {
	args := os.Args[1:]

	cfg := herobg.DefaultConfig()
	if path := configPathFromArgs(args); path != "" {
		var err error
		cfg, err = herobg.LoadConfigFile(path, cfg)
		if err != nil {
			misc.ErrLogger.Fatalf("failed to load config: %v", err)
		}
	}

	var flags cmdFlags
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flags.register(fs)
	cfg.RegisterFlags(fs)
	fs.Parse(args)

	if err := cfg.Validate(); err != nil {
		misc.ErrLogger.Fatal(err)
	}

	if flags.DumpConfig {
		data, err := cfg.EncodeTOML()
		if err != nil {
			misc.ErrLogger.Fatal(err)
		}
		fmt.Print(string(data))
		return
	}

	if flags.PProf {
		go func() {
			misc.InfoLogger.Print("initializing pprof")
			misc.InfoLogger.Print(http.ListenAndServe("localhost:6060", nil))
		}()
	}

	if flags.Headless {
		runHeadless(cfg, flags)
		return
	}

	app, err := herobg.NewApp(cfg)
	if err != nil {
		misc.ErrLogger.Fatal(err)
	}
	defer app.Close()

	eb.SetVsyncEnabled(true)
	eb.SetWindowSize(flags.Width, flags.Height)
	eb.SetWindowResizingMode(eb.WindowResizingModeEnabled)
	eb.SetWindowTitle("herobg")

	if err := eb.RunGame(app); err != nil {
		misc.ErrLogger.Fatal(err)
	}
}

func runHeadless(cfg herobg.Config, flags cmdFlags) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := herobg.RunHeadless(ctx, cfg, herobg.HeadlessConfig{
		Hz:           flags.Hz,
		Frames:       flags.Frames,
		RenderCost:   flags.SimulateCost,
		Width:        flags.Width,
		Height:       flags.Height,
		PointerOrbit: 6,
	})

	fmt.Println(stats.String())

	if err != nil {
		misc.ErrLogger.Fatal(err)
	}
}
