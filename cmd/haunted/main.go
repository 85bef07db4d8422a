package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"haunted-house/assets"
	"haunted-house/config"
	"haunted-house/core"
	"haunted-house/export"
	"haunted-house/haunted"
	"haunted-house/loop"
	"haunted-house/platform"
	"haunted-house/renderer"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	exportPath := flag.String("export", "", "write the scene to a .glb file and exit")
	writeConfig := flag.String("write-config", "", "write the effective config as TOML and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if *writeConfig != "" {
		if err := config.Save(*writeConfig, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err := core.InitLogger(cfg.Debug.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	err := run(cfg, *exportPath)
	if err != nil {
		core.Log.Error("Fatal", zap.Error(err))
	}
	core.SyncLogger()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, exportPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Textures ──────────────────────────────────────────────────────────────
	var (
		loader   *assets.Loader
		textures haunted.TextureSource
		poller   haunted.TexturePoller
	)
	if cfg.Scene.Variant == config.VariantTextured {
		l, err := assets.NewLoader(cfg.Textures.Root)
		if err != nil {
			return err
		}
		defer l.Close()
		core.Log.Info("Loading textures", zap.String("root", l.Root()))
		loader, textures, poller = l, l, l
	}

	// ── Scene ─────────────────────────────────────────────────────────────────
	seed := cfg.Scene.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	world := haunted.Build(haunted.ConfigFrom(cfg.Scene), textures, rand.New(rand.NewSource(seed)))
	core.Log.Debug("Grave seed", zap.Int64("seed", seed))

	if exportPath != "" {
		return export.WriteGLB(exportPath, world.Scene)
	}

	// ── Window and renderer ───────────────────────────────────────────────────
	windowConfig := platform.DefaultWindowConfig()
	windowConfig.Width = cfg.Window.Width
	windowConfig.Height = cfg.Window.Height
	windowConfig.Title = cfg.Window.Title
	windowConfig.VSync = cfg.Window.VSync

	window, err := platform.NewWindow(windowConfig)
	if err != nil {
		return err
	}
	defer window.Destroy()

	renderEngine, err := renderer.NewRenderEngine(window)
	if err != nil {
		return err
	}
	defer renderEngine.Destroy()
	renderEngine.ShadowsEnabled = cfg.Scene.Shadows

	if loader != nil && cfg.Textures.Watch {
		if err := loader.Watch(ctx); err != nil {
			core.Log.Warn("Texture hot reload disabled", zap.Error(err))
		}
	}

	app := haunted.NewApp(world, renderEngine, poller)
	app.Panel.Visible = cfg.Debug.Panel
	app.Panel.ShowHUD = cfg.Debug.HUD
	width, height := window.GetSize()
	app.Resize(width, height, window.PixelRatio())

	// ── Input ─────────────────────────────────────────────────────────────────
	leftDown := false
	window.SetMouseButtonCallback(func(button int, pressed bool) {
		if button == platform.MouseLeft {
			leftDown = pressed
		}
		x, y := window.GetCursorPos()
		app.HandlePointerButton(button, pressed, x, y)
	})
	window.SetCursorCallback(func(x, y float64) {
		app.HandlePointerMove(x, y, leftDown)
	})
	window.SetScrollCallback(func(_, yoff float64) {
		app.HandleWheel(yoff)
	})
	window.SetResizeCallback(app.Resize)

	// ── Main loop ─────────────────────────────────────────────────────────────
	// Buffer swaps pace the loop; the clock only pumps window events.
	clock := loop.ClockFunc(func(context.Context) error {
		window.PollEvents()
		return nil
	})
	frame := func(ctx context.Context) error {
		if window.ShouldClose() || window.IsKeyPressed(platform.KeyEscape) {
			return loop.ErrStop
		}
		return app.Tick(ctx)
	}

	core.Log.Info("Haunted house running",
		zap.String("variant", cfg.Scene.Variant),
		zap.Int("graves", len(world.Graves.Children)))
	app.Start()
	if err := loop.Run(ctx, clock, frame); err != nil {
		return err
	}
	core.Log.Info("Shutting down")
	return nil
}
