package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jqx/internal/config"
	"github.com/oakwood-commons/jqx/internal/ui"
	"github.com/oakwood-commons/jqx/pkg/settings"
)

var (
	keysFormat    string
	configOutput  string
	configExample bool
)

// versionString builds the version line for `jqx version` and --version.
func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print jqx version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), versionString())
		return err
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List key bindings",
	Long:  "Print every action of every panel with its keys, after applying the bindings of the config file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(params, false)
		if err != nil {
			return err
		}
		panels, err := effectiveBindings(cfg)
		if err != nil {
			return err
		}
		var out string
		switch strings.ToLower(keysFormat) {
		case "", "markdown", "md":
			out = ui.HotkeysMarkdown(panels)
		case "html":
			out = ui.HotkeysHTML(panels)
		default:
			return fmt.Errorf("unsupported format %q (use markdown or html)", keysFormat)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration jqx would run with, after reading the config file.

With --example the commented example written on first start is printed
instead. Uncomment a line to change its default.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configExample {
			_, err := fmt.Fprint(cmd.OutOrStdout(), exampleConfig())
			return err
		}
		cfg, err := loadConfig(params, false)
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg, configOutput)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() { //nolint:gochecknoinits
	keysCmd.Flags().StringVarP(&keysFormat, "format", "f", "markdown", "output format: markdown|html")
	configCmd.Flags().StringVarP(&configOutput, "output", "o", "toml", "output format: toml|yaml")
	configCmd.Flags().BoolVar(&configExample, "example", false, "print the commented example config")
}
