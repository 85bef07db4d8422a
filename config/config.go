package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Scene variants.
const (
	VariantTextured = "textured"
	VariantFlat     = "flat"
)

type Config struct {
	Window   Window   `toml:"window"`
	Scene    Scene    `toml:"scene"`
	Textures Textures `toml:"textures"`
	Debug    Debug    `toml:"debug"`
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

type Scene struct {
	Variant string `toml:"variant"`
	Seed    int64  `toml:"seed"` // 0 seeds from the clock
	Shadows bool   `toml:"shadows"`
	Sky     bool   `toml:"sky"`
	Graves  int    `toml:"graves"`
}

type Textures struct {
	Root  string `toml:"root"`
	Watch bool   `toml:"watch"`
}

type Debug struct {
	Panel    bool   `toml:"panel"`
	HUD      bool   `toml:"hud"`
	LogLevel string `toml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Window: Window{
			Width:  1280,
			Height: 720,
			Title:  "Haunted House",
			VSync:  true,
		},
		Scene: Scene{
			Variant: VariantTextured,
			Shadows: true,
			Sky:     true,
			Graves:  30,
		},
		Textures: Textures{
			Root: "static",
		},
		Debug: Debug{
			Panel:    true,
			HUD:      true,
			LogLevel: "info",
		},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default value; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	switch c.Scene.Variant {
	case VariantTextured, VariantFlat:
	default:
		return fmt.Errorf("%w: scene variant %q", ErrInvalid, c.Scene.Variant)
	}
	if c.Scene.Graves < 0 {
		return fmt.Errorf("%w: negative grave count %d", ErrInvalid, c.Scene.Graves)
	}
	switch c.Debug.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Debug.LogLevel)
	}
	return nil
}
