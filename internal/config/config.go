package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/artboard/artboard/internal/document"
	"github.com/artboard/artboard/internal/engine"
	"github.com/artboard/artboard/internal/scene"
)

type Config struct {
	Port int `envconfig:"PORT" default:"8080"`
	// DatabaseURL selects PostgreSQL storage; empty keeps everything in memory.
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	CanvasWidth        int `envconfig:"CANVAS_WIDTH" default:"800"`
	CanvasHeight       int `envconfig:"CANVAS_HEIGHT" default:"600"`
	SelectionThickness int `envconfig:"SELECTION_THICKNESS" default:"2"`
	DuplicateOffset    int `envconfig:"DUPLICATE_OFFSET" default:"10"`
	HistoryLimit       int `envconfig:"HISTORY_LIMIT" default:"0"`
	// MaxCanvas caps the canvas and background sides accepted from clients.
	MaxCanvas int `envconfig:"MAX_CANVAS" default:"4096"`

	// AutosaveInterval is how often open drawings with unsaved edits are
	// written back. Zero saves only when the editor disconnects.
	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL" default:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if cfg.MaxCanvas <= 0 || cfg.MaxCanvas > document.MaxCanvas {
		return nil, fmt.Errorf("MAX_CANVAS must be in 1-%d, got %d", document.MaxCanvas, cfg.MaxCanvas)
	}
	if cfg.CanvasWidth > cfg.MaxCanvas || cfg.CanvasHeight > cfg.MaxCanvas {
		return nil, fmt.Errorf("canvas size %dx%d exceeds MAX_CANVAS %d", cfg.CanvasWidth, cfg.CanvasHeight, cfg.MaxCanvas)
	}
	if cfg.AutosaveInterval < 0 {
		return nil, fmt.Errorf("AUTOSAVE_INTERVAL must not be negative, got %s", cfg.AutosaveInterval)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LOG_LEVEL.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Origins splits ALLOWED_ORIGINS into its entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// EngineOptions derives the settings every new drawing's engine starts with.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.Size = scene.Sz(c.CanvasWidth, c.CanvasHeight)
	opts.SelectionThickness = c.SelectionThickness
	opts.DuplicateOffset = c.DuplicateOffset
	opts.HistoryLimit = c.HistoryLimit
	opts.MaxCanvas = c.MaxCanvas
	return opts
}
