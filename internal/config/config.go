// Package config loads the demo configuration from defaults, a YAML file
// and DEMO_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the demo configuration.
type Config struct {
	Window  WindowConfig  `mapstructure:"window"`
	Render  RenderConfig  `mapstructure:"render"`
	Effects EffectsConfig `mapstructure:"effects"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type WindowConfig struct {
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	Title     string `mapstructure:"title"`
	VSync     bool   `mapstructure:"vsync"`
	Resizable bool   `mapstructure:"resizable"`
}

type RenderConfig struct {
	Scene            string    `mapstructure:"scene"`
	AliasingCheck    bool      `mapstructure:"aliasing_check"`
	AutoMipMaps      bool      `mapstructure:"auto_mipmaps"`
	MipFilter        string    `mapstructure:"mip_filter"`
	ShadowLayers     int       `mapstructure:"shadow_layers"`
	ShadowSize       int       `mapstructure:"shadow_size"`
	UniformCacheSize int       `mapstructure:"uniform_cache_size"`
	TextureCacheSize int       `mapstructure:"texture_cache_size"`
	ClearColor       []float32 `mapstructure:"clear_color"`
}

type EffectsConfig struct {
	Fog     FogConfig     `mapstructure:"fog"`
	ToneMap ToneMapConfig `mapstructure:"tonemap"`
	Bloom   BloomConfig   `mapstructure:"bloom"`
	SSAO    SSAOConfig    `mapstructure:"ssao"`
}

type FogConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Density   float32 `mapstructure:"density"`
	Animation float32 `mapstructure:"animation"`
	// DayLength is the length of the day-night fog cycle in seconds; 0
	// keeps the fog colour fixed.
	DayLength float32   `mapstructure:"day_length"`
	Color     []float32 `mapstructure:"color"`
}

type ToneMapConfig struct {
	Exposure float32 `mapstructure:"exposure"`
}

type BloomConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Threshold float32 `mapstructure:"threshold"`
	Strength  float32 `mapstructure:"strength"`
	Passes    int     `mapstructure:"passes"`
}

type SSAOConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	Radius   float32 `mapstructure:"radius"`
	Bias     float32 `mapstructure:"bias"`
	Strength float32 `mapstructure:"strength"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:     1280,
			Height:    720,
			Title:     "render-core demo",
			VSync:     true,
			Resizable: true,
		},
		Render: RenderConfig{
			AliasingCheck:    true,
			AutoMipMaps:      false,
			MipFilter:        "linear",
			ShadowLayers:     4,
			ShadowSize:       1024,
			UniformCacheSize: 512,
			TextureCacheSize: 64,
			ClearColor:       []float32{0.05, 0.05, 0.08, 1},
		},
		Effects: EffectsConfig{
			Fog: FogConfig{
				Enabled:   true,
				Density:   0.02,
				Animation: 0.1,
				DayLength: 120,
				Color:     []float32{0.62, 0.78, 0.95},
			},
			ToneMap: ToneMapConfig{Exposure: 1},
			Bloom:   BloomConfig{Enabled: true, Threshold: 1, Strength: 0.04, Passes: 5},
			SSAO:    SSAOConfig{Enabled: true, Radius: 0.5, Bias: 0.025, Strength: 1},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load loads configuration from file, environment, and defaults. An empty
// cfgFile looks for config.yaml in the working directory and ~/.render-core.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".render-core"))
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("DEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Logging.File = expandPath(cfg.Logging.File)
	cfg.Render.Scene = expandPath(cfg.Render.Scene)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.New("window.width and window.height must be positive")
	}
	if !slices.Contains([]string{"none", "nearest", "linear"}, c.Render.MipFilter) {
		return errors.New("render.mip_filter must be one of: none, nearest, linear")
	}
	if c.Render.ShadowLayers < 1 || c.Render.ShadowLayers > 4 {
		return errors.New("render.shadow_layers must be between 1 and 4")
	}
	if c.Render.ShadowSize < 16 {
		return errors.New("render.shadow_size must be at least 16")
	}
	if c.Render.UniformCacheSize <= 0 || c.Render.TextureCacheSize <= 0 {
		return errors.New("render cache sizes must be positive")
	}
	if len(c.Render.ClearColor) != 4 {
		return errors.New("render.clear_color must have 4 components")
	}
	if len(c.Effects.Fog.Color) != 3 {
		return errors.New("effects.fog.color must have 3 components")
	}
	if c.Effects.Fog.Density < 0 {
		return errors.New("effects.fog.density must not be negative")
	}
	if c.Effects.ToneMap.Exposure <= 0 {
		return errors.New("effects.tonemap.exposure must be positive")
	}
	if c.Effects.Bloom.Passes < 0 || c.Effects.Bloom.Passes > 16 {
		return errors.New("effects.bloom.passes must be between 0 and 16")
	}
	if c.Effects.SSAO.Radius <= 0 {
		return errors.New("effects.ssao.radius must be positive")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("window.width", cfg.Window.Width)
	v.SetDefault("window.height", cfg.Window.Height)
	v.SetDefault("window.title", cfg.Window.Title)
	v.SetDefault("window.vsync", cfg.Window.VSync)
	v.SetDefault("window.resizable", cfg.Window.Resizable)

	v.SetDefault("render.scene", cfg.Render.Scene)
	v.SetDefault("render.aliasing_check", cfg.Render.AliasingCheck)
	v.SetDefault("render.auto_mipmaps", cfg.Render.AutoMipMaps)
	v.SetDefault("render.mip_filter", cfg.Render.MipFilter)
	v.SetDefault("render.shadow_layers", cfg.Render.ShadowLayers)
	v.SetDefault("render.shadow_size", cfg.Render.ShadowSize)
	v.SetDefault("render.uniform_cache_size", cfg.Render.UniformCacheSize)
	v.SetDefault("render.texture_cache_size", cfg.Render.TextureCacheSize)
	v.SetDefault("render.clear_color", cfg.Render.ClearColor)

	v.SetDefault("effects.fog.enabled", cfg.Effects.Fog.Enabled)
	v.SetDefault("effects.fog.density", cfg.Effects.Fog.Density)
	v.SetDefault("effects.fog.animation", cfg.Effects.Fog.Animation)
	v.SetDefault("effects.fog.day_length", cfg.Effects.Fog.DayLength)
	v.SetDefault("effects.fog.color", cfg.Effects.Fog.Color)
	v.SetDefault("effects.tonemap.exposure", cfg.Effects.ToneMap.Exposure)
	v.SetDefault("effects.bloom.enabled", cfg.Effects.Bloom.Enabled)
	v.SetDefault("effects.bloom.threshold", cfg.Effects.Bloom.Threshold)
	v.SetDefault("effects.bloom.strength", cfg.Effects.Bloom.Strength)
	v.SetDefault("effects.bloom.passes", cfg.Effects.Bloom.Passes)
	v.SetDefault("effects.ssao.enabled", cfg.Effects.SSAO.Enabled)
	v.SetDefault("effects.ssao.radius", cfg.Effects.SSAO.Radius)
	v.SetDefault("effects.ssao.bias", cfg.Effects.SSAO.Bias)
	v.SetDefault("effects.ssao.strength", cfg.Effects.SSAO.Strength)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
}
