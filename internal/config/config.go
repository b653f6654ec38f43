package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Canvas  CanvasConfig  `toml:"canvas"`
	Keys    KeyConfig     `toml:"keys"`
}

type StorageConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"` // debug | info | warn | error
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type CanvasConfig struct {
	ShowSidebar     bool `toml:"show_sidebar"`
	MarkdownPreview bool `toml:"markdown_preview"`
	PanStep         int  `toml:"pan_step"` // cells per keyboard pan press
}

type KeyConfig struct {
	AddCard         string `toml:"add_card"`
	DeleteCard      string `toml:"delete_card"`
	EditCard        string `toml:"edit_card"`
	YankCard        string `toml:"yank_card"`
	ZoomIn          string `toml:"zoom_in"`
	ZoomOut         string `toml:"zoom_out"`
	ResetView       string `toml:"reset_view"`
	CenterSelection string `toml:"center_selection"`
	Sidebar         string `toml:"sidebar"`
	Preview         string `toml:"preview"`
}

func Default(storeDir string) Config {
	return Config{
		Storage: StorageConfig{
			Dir: storeDir,
		},
		Logging: LoggingConfig{
			Level: "warn",
			DevFile: DevFileConfig{
				Enabled: false,
			},
		},
		Canvas: CanvasConfig{
			ShowSidebar:     true,
			MarkdownPreview: true,
			PanStep:         4,
		},
		Keys: KeyConfig{
			AddCard:         "a",
			DeleteCard:      "x",
			EditCard:        "enter",
			YankCard:        "y",
			ZoomIn:          "+",
			ZoomOut:         "-",
			ResetView:       "0",
			CenterSelection: "c",
			Sidebar:         "w",
			Preview:         "p",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Storage.Dir) == "" {
		return errors.New("storage dir is required")
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if level != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when dev file logging is enabled")
	}

	if c.Canvas.PanStep < 1 {
		return fmt.Errorf("canvas.pan_step must be >= 1, got %d", c.Canvas.PanStep)
	}

	seen := map[string]string{}
	for name, key := range map[string]string{
		"keys.add_card":         c.Keys.AddCard,
		"keys.delete_card":      c.Keys.DeleteCard,
		"keys.edit_card":        c.Keys.EditCard,
		"keys.yank_card":        c.Keys.YankCard,
		"keys.zoom_in":          c.Keys.ZoomIn,
		"keys.zoom_out":         c.Keys.ZoomOut,
		"keys.reset_view":       c.Keys.ResetView,
		"keys.center_selection": c.Keys.CenterSelection,
		"keys.sidebar":          c.Keys.Sidebar,
		"keys.preview":          c.Keys.Preview,
	} {
		if key == "" {
			return fmt.Errorf("%s is required", name)
		}
		if other, dup := seen[key]; dup {
			return fmt.Errorf("%s and %s are both bound to %q", other, name, key)
		}
		seen[key] = name
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
