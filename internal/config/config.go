// Package config provides Viper-based configuration loading for the Taktiks client.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DisplayConfig holds the logical screen size.
type DisplayConfig struct {
	// Width is the logical screen width in pixels.
	Width int `mapstructure:"width"`
	// Height is the logical screen height in pixels. Menu hit-testing treats it as the
	// lower bound of the menu area.
	Height int `mapstructure:"height"`
}

// MenuConfig holds the command menu geometry.
type MenuConfig struct {
	// BaseY is the Y coordinate of the first menu row.
	BaseY float64 `mapstructure:"base_y"`
	// PanelTop is the Y coordinate where the background panel starts.
	PanelTop float64 `mapstructure:"panel_top"`
	// RowHeight is the height of a single menu row.
	RowHeight float64 `mapstructure:"row_height"`
	// ItemWidth is the width of every menu row.
	ItemWidth float64 `mapstructure:"item_width"`
}

// OriginX returns the left edge of the menu for the given player seat.
// Seat one is anchored to the left edge; seat two is mirrored to the right edge.
//
// Precondition: seat is 1 or 2; screenWidth > ItemWidth.
// Postcondition: Returns 0 for seat 1, screenWidth-ItemWidth otherwise.
func (m MenuConfig) OriginX(seat int, screenWidth int) float64 {
	if seat == 1 {
		return 0
	}
	return float64(screenWidth) - m.ItemWidth
}

// InputConfig holds event dispatch settings.
type InputConfig struct {
	// Workers is the dispatch pool size. A single worker delivers events in the order
	// they were raised; more workers drop the cross-event ordering guarantee.
	Workers int `mapstructure:"workers"`
	// QueueSize is the buffered capacity of the dispatch queue.
	QueueSize int `mapstructure:"queue_size"`
}

// Ordered reports whether dispatch preserves raise order.
//
// Postcondition: Returns true iff Workers == 1.
func (i InputConfig) Ordered() bool {
	return i.Workers == 1
}

// BattleConfig holds turn clock settings.
type BattleConfig struct {
	// TickRate is the number of frame-loop updates per second.
	TickRate int `mapstructure:"tick_rate"`
	// TimeScale is the wait-time gained per agility point per second.
	TimeScale float64 `mapstructure:"time_scale"`
}

// ContentConfig locates data files.
type ContentConfig struct {
	// UnitsDir holds the unit roster YAML files.
	UnitsDir string `mapstructure:"units_dir"`
	// ScriptsDir holds Lua effect hooks.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// InstructionLimit bounds each Lua hook invocation; 0 selects the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ReplayConfig holds headless replay settings.
type ReplayConfig struct {
	// File is the replay script path.
	File string `mapstructure:"file"`
	// FrameInterval is the wall-clock duration of one simulated frame.
	FrameInterval time.Duration `mapstructure:"frame_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Display DisplayConfig `mapstructure:"display"`
	Menu    MenuConfig    `mapstructure:"menu"`
	Input   InputConfig   `mapstructure:"input"`
	Battle  BattleConfig  `mapstructure:"battle"`
	Content ContentConfig `mapstructure:"content"`
	Logging LoggingConfig `mapstructure:"logging"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDisplay(c.Display); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMenu(c.Menu, c.Display); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateInput(c.Input); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Replay.FrameInterval < 0 {
		errs = append(errs, "replay.frame_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDisplay(d DisplayConfig) error {
	var errs []string
	if d.Width < 1 {
		errs = append(errs, fmt.Sprintf("display.width must be >= 1, got %d", d.Width))
	}
	if d.Height < 1 {
		errs = append(errs, fmt.Sprintf("display.height must be >= 1, got %d", d.Height))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMenu(m MenuConfig, d DisplayConfig) error {
	var errs []string
	if m.RowHeight <= 0 {
		errs = append(errs, fmt.Sprintf("menu.row_height must be > 0, got %v", m.RowHeight))
	}
	if m.ItemWidth <= 0 {
		errs = append(errs, fmt.Sprintf("menu.item_width must be > 0, got %v", m.ItemWidth))
	}
	if m.ItemWidth >= float64(d.Width) {
		errs = append(errs, "menu.item_width must be smaller than display.width")
	}
	if m.BaseY < 0 || m.BaseY >= float64(d.Height) {
		errs = append(errs, fmt.Sprintf("menu.base_y must be within [0, display.height), got %v", m.BaseY))
	}
	if m.PanelTop > m.BaseY {
		errs = append(errs, "menu.panel_top must not exceed menu.base_y")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateInput(i InputConfig) error {
	var errs []string
	if i.Workers < 1 {
		errs = append(errs, fmt.Sprintf("input.workers must be >= 1, got %d", i.Workers))
	}
	if i.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("input.queue_size must be >= 1, got %d", i.QueueSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.TickRate < 1 {
		errs = append(errs, fmt.Sprintf("battle.tick_rate must be >= 1, got %d", b.TickRate))
	}
	if b.TimeScale <= 0 {
		errs = append(errs, fmt.Sprintf("battle.time_scale must be > 0, got %v", b.TimeScale))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.UnitsDir == "" {
		return errors.New("content.units_dir must not be empty")
	}
	if c.InstructionLimit < 0 {
		return fmt.Errorf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with TAKTIKS_ prefix
	v.SetEnvPrefix("TAKTIKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// Default returns the built-in configuration without reading any file.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: built-in defaults are invalid: %v", err))
	}
	return cfg
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("display.width", 1280)
	v.SetDefault("display.height", 1024)

	v.SetDefault("menu.base_y", 323)
	v.SetDefault("menu.panel_top", 292)
	v.SetDefault("menu.row_height", 40)
	v.SetDefault("menu.item_width", 160)

	v.SetDefault("input.workers", 1)
	v.SetDefault("input.queue_size", 1024)

	v.SetDefault("battle.tick_rate", 60)
	v.SetDefault("battle.time_scale", 0.05)

	v.SetDefault("content.units_dir", "content/units")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.instruction_limit", 100000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("replay.file", "content/replays/demo.yaml")
	v.SetDefault("replay.frame_interval", "16ms")
}
