package cmd

import (
	"github.com/oakwood-commons/jqx/internal/config"
	"github.com/oakwood-commons/jqx/internal/ui"
	"github.com/oakwood-commons/jqx/pkg/settings"
)

// loadConfig reads the configuration named by p.ConfigPath, or the default
// path when none was given, and applies the command line overrides. With
// mayInit a missing default file is created from the commented example. An
// explicitly named file must exist.
func loadConfig(p *settings.Run, mayInit bool) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if p.ConfigPath != "" {
		cfg, err = config.Load(p.ConfigPath)
	} else {
		cfg, err = config.LoadOrInit(config.DefaultPath(), mayInit, exampleConfig())
	}
	if err != nil {
		return cfg, err
	}
	return applyOverrides(cfg, p), nil
}

func exampleConfig() string {
	return config.Example(ui.DefaultBindings())
}

func applyOverrides(cfg config.Config, p *settings.Run) config.Config {
	if p.MaxCellWidth > 0 {
		cfg.MaxCellWidth = p.MaxCellWidth
	}
	if p.JQBinary != "" {
		cfg.JQBinary = p.JQBinary
	}
	if p.StartAtPrompt {
		cfg.StartAtPrompt = true
	}
	return cfg
}

// effectiveBindings returns the default bindings with the overrides of cfg
// applied.
func effectiveBindings(cfg config.Config) ([]config.PanelBindings, error) {
	panels := ui.DefaultBindings()
	if err := cfg.ApplyBindings(panels); err != nil {
		return nil, err
	}
	return panels, nil
}
