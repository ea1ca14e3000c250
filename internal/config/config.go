// Package config loads service configuration from an optional YAML file and
// CRUXCAST_* environment variables, with sensible defaults for local use.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Capture holds the default capture parameters applied when a job payload
// omits them.
type Capture struct {
	Width           int
	Height          int
	FPS             int
	DurationPadding float64
}

// Log holds logging configuration.
type Log struct {
	Level     string
	Format    string
	AddSource bool
}

// Config is the full service configuration.
type Config struct {
	// ListenAddrs are host:port prefixes the control server binds. A bind
	// failure on one address is logged and skipped.
	ListenAddrs []string
	// AuthToken is the shared bearer secret; empty disables authorization.
	AuthToken string
	// FFmpegPath is the encoder binary invoked for capture.
	FFmpegPath string
	// OutputDir receives finished render files.
	OutputDir string
	// TickInterval is the main loop's idle tick period.
	TickInterval time.Duration
	Capture      Capture
	Log          Log
}

// Load reads configuration. An empty path means defaults plus environment
// only; a named file that cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addrs", []string{"127.0.0.1:8573"})
	v.SetDefault("auth_token", "")
	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("output_dir", "/tmp/cruxcast")
	v.SetDefault("tick_interval", "33ms")
	v.SetDefault("capture.width", 1)
	v.SetDefault("capture.height", 1)
	v.SetDefault("capture.fps", 30)
	v.SetDefault("capture.duration_padding", 0.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.add_source", false)

	v.SetEnvPrefix("cruxcast")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("cruxcast")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/cruxcast")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		ListenAddrs:  v.GetStringSlice("listen_addrs"),
		AuthToken:    v.GetString("auth_token"),
		FFmpegPath:   v.GetString("ffmpeg_path"),
		OutputDir:    v.GetString("output_dir"),
		TickInterval: v.GetDuration("tick_interval"),
		Capture: Capture{
			Width:           v.GetInt("capture.width"),
			Height:          v.GetInt("capture.height"),
			FPS:             v.GetInt("capture.fps"),
			DurationPadding: v.GetFloat64("capture.duration_padding"),
		},
		Log: Log{
			Level:     v.GetString("log.level"),
			Format:    v.GetString("log.format"),
			AddSource: v.GetBool("log.add_source"),
		},
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if len(c.ListenAddrs) == 0 {
		return fmt.Errorf("at least one listen address is required")
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 33 * time.Millisecond
	}
	if c.Capture.Width < 1 {
		c.Capture.Width = 1
	}
	if c.Capture.Height < 1 {
		c.Capture.Height = 1
	}
	if c.Capture.FPS < 1 {
		c.Capture.FPS = 30
	}
	if c.Capture.DurationPadding < 0 {
		c.Capture.DurationPadding = 0
	}
	return nil
}
