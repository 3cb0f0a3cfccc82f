package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Display: DisplayConfig{Width: 1280, Height: 1024},
		Menu: MenuConfig{
			BaseY:     323,
			PanelTop:  292,
			RowHeight: 40,
			ItemWidth: 160,
		},
		Input:  InputConfig{Workers: 1, QueueSize: 64},
		Battle: BattleConfig{TickRate: 60, TimeScale: 0.05},
		Content: ContentConfig{
			UnitsDir:         "content/units",
			ScriptsDir:       "content/scripts",
			InstructionLimit: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Replay: ReplayConfig{File: "demo.yaml", FrameInterval: 16 * time.Millisecond},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 1280, cfg.Display.Width)
	assert.Equal(t, 1024, cfg.Display.Height)
	assert.Equal(t, 323.0, cfg.Menu.BaseY)
	assert.Equal(t, 292.0, cfg.Menu.PanelTop)
	assert.Equal(t, 1, cfg.Input.Workers)
	assert.Equal(t, 16*time.Millisecond, cfg.Replay.FrameInterval)
}

func TestMenuOriginX(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 0.0, cfg.Menu.OriginX(1, cfg.Display.Width))
	assert.Equal(t, 1120.0, cfg.Menu.OriginX(2, cfg.Display.Width))
}

func TestInputOrdered(t *testing.T) {
	assert.True(t, InputConfig{Workers: 1}.Ordered())
	assert.False(t, InputConfig{Workers: 4}.Ordered())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
display:
  width: 1024
  height: 768
menu:
  base_y: 200
  panel_top: 180
  row_height: 32
  item_width: 128
input:
  workers: 4
  queue_size: 16
battle:
  tick_rate: 30
  time_scale: 0.1
content:
  units_dir: units
logging:
  level: debug
  format: console
replay:
  frame_interval: 5ms
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Display.Width)
	assert.Equal(t, 32.0, cfg.Menu.RowHeight)
	assert.Equal(t, 4, cfg.Input.Workers)
	assert.Equal(t, "units", cfg.Content.UnitsDir)
	assert.Equal(t, "content/scripts", cfg.Content.ScriptsDir, "unset keys fall back to defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5*time.Millisecond, cfg.Replay.FrameInterval)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0644))
	t.Setenv("TAKTIKS_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateDisplay(t *testing.T) {
	cfg := validConfig()
	cfg.Display.Width = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Display.Height = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateMenuRowHeight(t *testing.T) {
	cfg := validConfig()
	cfg.Menu.RowHeight = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateMenuItemWidthExceedsDisplay(t *testing.T) {
	cfg := validConfig()
	cfg.Menu.ItemWidth = 1280
	assert.Error(t, cfg.Validate())
}

func TestValidateMenuPanelBelowBase(t *testing.T) {
	cfg := validConfig()
	cfg.Menu.PanelTop = 400
	assert.Error(t, cfg.Validate())
}

func TestValidateInput(t *testing.T) {
	cfg := validConfig()
	cfg.Input.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Input.QueueSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateBattle(t *testing.T) {
	cfg := validConfig()
	cfg.Battle.TickRate = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Battle.TimeScale = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateContent(t *testing.T) {
	cfg := validConfig()
	cfg.Content.UnitsDir = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Content.InstructionLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateAggregatesViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Input.Workers = 0
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.workers")
	assert.Contains(t, err.Error(), "logging.format")
}

// Property-based tests

func TestPropertyWorkersPositiveAccepted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workers := rapid.IntRange(1, 64).Draw(t, "workers")
		cfg := validConfig()
		cfg.Input.Workers = workers
		if err := cfg.Validate(); err != nil {
			t.Fatalf("valid workers %d rejected: %v", workers, err)
		}
	})
}

func TestPropertyWorkersNonPositiveRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		workers := rapid.IntRange(-100, 0).Draw(t, "workers")
		cfg := validConfig()
		cfg.Input.Workers = workers
		if cfg.Validate() == nil {
			t.Fatalf("invalid workers %d accepted", workers)
		}
	})
}

func TestPropertyMirroredMenuFitsScreen(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(200, 4000).Draw(t, "width")
		item := rapid.Float64Range(1, float64(width)-1).Draw(t, "item")
		m := MenuConfig{ItemWidth: item}
		x := m.OriginX(2, width)
		if x < 0 || x+item > float64(width)+1e-9 {
			t.Fatalf("mirrored menu at %v width %v escapes screen %d", x, item, width)
		}
	})
}
