package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/jqx/internal/query"
	"github.com/oakwood-commons/jqx/internal/telemetry"
	"github.com/oakwood-commons/jqx/internal/ui"
	"github.com/oakwood-commons/jqx/pkg/loader"
	"github.com/oakwood-commons/jqx/pkg/logger"
	"github.com/oakwood-commons/jqx/pkg/settings"
)

var (
	params = settings.NewCliParams()
	debug  bool

	rootCtx = context.Background()
)

var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
	newResizeTicker  = func(d time.Duration) resizeTicker { return realResizeTicker{Ticker: time.NewTicker(d)} }
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
	runProgram       = func(m tea.Model, opts ...tea.ProgramOption) error {
		_, err := tea.NewProgram(m, opts...).Run()
		return err
	}
)

type resizeTicker interface {
	C() <-chan time.Time
	Stop()
}

type realResizeTicker struct {
	*time.Ticker
}

func (t realResizeTicker) C() <-chan time.Time { return t.Ticker.C }

var rootCmd = &cobra.Command{
	Use:   "jqx [file...]",
	Short: "jqx - interactive jq explorer",
	Long: `jqx shows JSON as a table and re-runs a jq filter on every edit.

Files are read as JSON unless their extension or content says YAML, TOML or
JWT, in which case they are converted first. Without files, standard input is
read. The keyboard is taken from the terminal even when input is piped.

Press C-g to quit. 'jqx keys' lists every key binding.`,
	Example: "\n  jqx data.json\n  jqx data.json -c '.items | map(.name)'\n  kubectl get pods -o json | jqx -c .items\n  jqx a.json b.json --slurp\n",
	Args:    cobra.ArbitraryArgs,
	// Errors are printed by main.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var level int8
		if debug {
			level = -1
		}
		var opts []logger.Option
		if params.LogFile != "" {
			sink, err := logger.OpenFile(params.LogFile)
			if err != nil {
				return err
			}
			opts = append(opts, logger.WithSink(sink))
		}
		params.MinLogLevel = level
		lgr := logger.Get(level, opts...)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		rootCtx = settings.IntoContext(logger.WithLogger(context.Background(), lgr), params)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		params.Files = args
		return runExplorer(rootCtx, cmd, os.Args[1:])
	},
}

// runExplorer loads the configuration and inputs, starts jq and hands the
// terminal to the explorer until it quits.
func runExplorer(ctx context.Context, cmd *cobra.Command, argv []string) error {
	lgr := *logger.FromContext(ctx)

	cfg, err := loadConfig(params, true)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		lgr.Error(err, "tracing disabled")
	} else {
		defer func() { _ = shutdown(context.Background()) }()
	}

	inputs, err := loader.Prepare(params.Files, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() {
		if err := inputs.Cleanup(); err != nil {
			lgr.Error(err, "failed to remove temporary inputs")
		}
	}()

	engine := query.NewEngine(ctx, inputs.Files,
		query.WithBinary(cfg.JQBinary),
		query.WithSlurp(params.Slurp),
		query.WithPrelude(cfg.Prelude),
		query.WithLogger(lgr.WithName("query")),
	)
	defer engine.Close()

	if err := checkJQ(ctx, engine, cmd.ErrOrStderr(), lgr); err != nil {
		return err
	}

	app := ui.NewApp(ctx, cfg, engine, params.Command,
		ui.WithLogger(lgr.WithName("ui")),
		ui.WithArgs(argv),
		ui.WithNoColor(params.NoColor || os.Getenv("NO_COLOR") != ""),
	)
	if err := cfg.ApplyBindings(app.Bindings()); err != nil {
		return err
	}

	opts, cleanup := getProgramOptions()
	defer cleanup()
	return runProgram(app, opts...)
}

// checkJQ fails when jq cannot be run and warns about versions older than
// query.MinimumVersion.
func checkJQ(ctx context.Context, engine *query.Engine, stderr io.Writer, lgr logr.Logger) error {
	version, err := engine.CheckVersion(ctx)
	switch {
	case errors.Is(err, query.ErrUnsupportedVersion):
		fmt.Fprintf(stderr, "warning: %v\n", err)
	case err != nil:
		return err
	}
	lgr.V(1).Info("using jq", "version", version)
	return nil
}

// getProgramOptions handles piped stdin by reopening the terminal for interactive input/output.
// This allows Bubble Tea to read keys while the data arrives on stdin.
// Returns tea.ProgramOption values (plus a cleanup) that should be passed to tea.NewProgram.
func getProgramOptions() ([]tea.ProgramOption, func()) {
	cleanup := func() {}
	if !stdinIsPiped() {
		return nil, cleanup
	}

	ttyIn, ttyOut, err := openTerminalIOFn()
	if err != nil {
		// No controlling terminal (CI). The program still runs but gets no keys.
		return nil, cleanup
	}
	cleanup = func() {
		_ = ttyIn.Close()
		if ttyOut != nil && ttyOut != ttyIn {
			_ = ttyOut.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(ttyIn)}
	if ttyOut != nil {
		opts = append(opts, tea.WithOutput(ttyOut), withTTYResizeWatcher(ctx, ttyOut))
	}

	return opts, func() {
		cancel()
		cleanup()
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}

	if out == "" || out == in {
		return input, input, nil
	}

	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		return input, nil, err
	}

	return input, output, nil
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}

	return "/dev/tty", "/dev/tty"
}

// withTTYResizeWatcher polls the terminal size and sends resize messages when
// signals are unreliable (piped stdin on Windows). It stops when ctx is canceled.
func withTTYResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if ctx == nil || out == nil {
			return
		}

		go func() {
			t := newResizeTicker(250 * time.Millisecond)
			defer t.Stop()

			lastW, lastH := 0, 0
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C():
					w, h, err := termGetSize(int(out.Fd()))
					if err != nil {
						continue
					}
					if w == lastW && h == lastH {
						continue
					}
					lastW, lastH = w, h
					sendWindowSize(p, tea.WindowSizeMsg{Width: w, Height: h})
				}
			}
		}()
	}
}

func init() { //nolint:gochecknoinits
	f := rootCmd.Flags()
	f.StringVarP(&params.Command, "command", "c", params.Command, "initial jq filter")
	f.IntVarP(&params.MaxCellWidth, "max-cell-width", "w", 0, "maximum column width in cells (default from config)")
	f.BoolVarP(&params.Slurp, "slurp", "s", false, "read all inputs into one array (always on for several files)")
	f.StringVar(&params.JQBinary, "jq", "", "jq binary to run (default from config)")
	f.BoolVar(&params.StartAtPrompt, "start-at-prompt", false, "start with the prompt active instead of the table")
	f.BoolVar(&params.NoColor, "no-color", false, "disable colors")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&params.ConfigPath, "config", "", "path to a TOML or YAML config file (default $XDG_CONFIG_HOME/jqx/config.toml)")
	pf.StringVar(&params.LogFile, "logfile", "", "write JSON logs to this file")
	pf.BoolVar(&debug, "debug", false, "log at debug level")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd, keysCmd, configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
