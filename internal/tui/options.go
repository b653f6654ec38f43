package tui

import (
	"github.com/hylla/slab/internal/config"
	"github.com/hylla/slab/internal/gesture"
	"github.com/hylla/slab/internal/measure"
)

type Option func(*Model)

// WithKeyConfig rebinds the canvas keys from configuration.
func WithKeyConfig(keys config.KeyConfig) Option {
	return func(m *Model) {
		m.keys = newKeyMap(keys)
	}
}

// WithCanvasConfig applies canvas behavior settings.
func WithCanvasConfig(cfg config.CanvasConfig) Option {
	return func(m *Model) {
		if cfg.PanStep > 0 {
			m.canvasCfg = cfg
		}
	}
}

// WithMetrics overrides the unit metrics shared with measurement.
func WithMetrics(metrics measure.Metrics) Option {
	return func(m *Model) {
		m.metrics = metrics
	}
}

// WithLogger routes degenerate-geometry warnings from the gesture layer to
// the runtime logger.
func WithLogger(log gesture.Logger) Option {
	return func(m *Model) {
		m.viewCtl.SetLogger(log)
	}
}

// WithClipboard injects the system clipboard writer used by yank.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		m.writeClipboard = write
	}
}
