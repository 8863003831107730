package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/winlist/internal/config"
	"github.com/charmbracelet/winlist/internal/log"
	"github.com/charmbracelet/winlist/internal/metrics"
	termutil "github.com/charmbracelet/winlist/internal/term"
	"github.com/charmbracelet/winlist/internal/tui"
	"github.com/charmbracelet/winlist/internal/tui/exp/list"
	"github.com/charmbracelet/winlist/internal/version"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("data-dir", "D", "", "Custom winlist data directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("follow", "f", false, "Keep reading lines appended to the file")
	rootCmd.Flags().Int("threshold", 0, "Rows above the viewport whose items stay mounted")
	rootCmd.Flags().Int("overscan", 0, "Extra items mounted on each side of the window")

	rootCmd.AddCommand(
		windowCmd,
		dirsCmd,
		logsCmd,
		schemaCmd,
	)
}

var rootCmd = &cobra.Command{
	Use:   "winlist [file]",
	Short: "Scroll through huge files in a virtualized terminal list",
	Long: `Winlist shows a file, or lines piped into it, as a scrollable list.
Only the lines inside the visible window are rendered; everything else is
represented by its estimated or measured height, so the list stays fast no
matter how many lines it holds.`,
	Example: `
# View a file
winlist server.log

# View the output of a command
journalctl -b | winlist

# Follow a growing file, like tail -f
winlist -f server.log

# Keep ten extra rows mounted above the viewport
winlist --threshold 10 server.log

# Print version
winlist -v
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}
		defer log.RecoverPanic("main", nil)

		stop := termutil.StartProgressBar(os.Stderr)
		src, err := readSource(args, follow)
		stop()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		m := metrics.NewMetrics()
		if !cfg.Options.DisableMetrics {
			startMetrics(ctx, cfg.Options.MetricsAddress, m)
		}

		ui := tui.New(cfg, list.Lines(src.text, 0), tui.Options{
			Title:   src.title,
			Follow:  follow,
			Metrics: m,
		})
		opts := []tea.ProgramOption{
			tea.WithContext(ctx),
			tea.WithFilter(tui.MouseEventFilter), // Drop bursts of wheel events
		}
		if src.piped {
			tty, err := openTTY()
			if err != nil {
				return fmt.Errorf("failed to open terminal for input: %w", err)
			}
			defer tty.Close()
			opts = append(opts, tea.WithInput(tty))
		}
		program := tea.NewProgram(ui, opts...)

		reloader, err := watchConfig(cmd, cfg, dataDir, program.Send)
		if err != nil {
			slog.Warn("Configuration hot reload disabled", "error", err)
		} else {
			defer reloader.Stop()
		}

		if follow {
			go func() {
				defer log.RecoverPanic("follow", nil)
				if err := followFile(ctx, src.path, src.size, program.Send); err != nil {
					slog.Error("Failed to follow file", "path", src.path, "error", err)
				}
			}()
		}

		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return errors.New("winlist crashed. If you'd like to report it, please copy the stacktrace above and open an issue") //nolint:staticcheck
		}
		slog.Debug("Session metrics", "metrics", m.GetSnapshot())
		return nil
	},
}

var heartbit = lipgloss.NewStyle().Foreground(charmtone.Dolly).SetString(`
 ▐▌▐▌ ▀█▀ ▐▛▜▌ ▐▌   ▀█▀ ▐▛▀ ▀█▀
 ▐▌▐▌  █  ▐▌▐▌ ▐▌    █  ▝▀▜  █
 ▝▀▀▘ ▀▀▀ ▝▘▝▘ ▝▀▀▘ ▀▀▀ ▀▀▘  ▀
`)

// copied from cobra:
const defaultVersionTemplate = `{{with .DisplayName}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`

func Execute() {
	// Cobra has no hook for printing the version, so the colored banner is
	// rendered for the current terminal up front and prepended to the
	// template.
	if term.IsTerminal(os.Stdout.Fd()) {
		var b bytes.Buffer
		w := colorprofile.NewWriter(os.Stdout, os.Environ())
		w.Forward = &b
		_, _ = w.WriteString(heartbit.String())
		rootCmd.SetVersionTemplate(b.String() + "\n" + defaultVersionTemplate)
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setupConfig loads the configuration, applies the list flags, prepares the
// data directory and starts logging.
func setupConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(cwd, dataDir, debug)
	if err != nil {
		return nil, err
	}
	if err := applyListFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := createDotWinlistDir(cfg.Options.DataDirectory); err != nil {
		return nil, err
	}
	log.Setup(cfg.LogFile(), cfg.Options.Debug)
	slog.Info("Starting winlist", "version", version.Version, "cwd", cwd)
	return cfg, nil
}

// applyListFlags overrides the list options with the flags set on the
// command line.
func applyListFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Lookup("threshold") != nil && flags.Changed("threshold") {
		cfg.List.ThresholdTop, _ = flags.GetInt("threshold")
	}
	if flags.Lookup("overscan") != nil && flags.Changed("overscan") {
		overscan, _ := flags.GetInt("overscan")
		cfg.List.Overscan = &overscan
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// watchConfig reloads the configuration when one of its files changes and
// forwards it to the program.
func watchConfig(cmd *cobra.Command, cfg *config.Config, dataDir string, send func(tea.Msg)) (*config.HotReloader, error) {
	reloader, err := config.NewHotReloader(cfg, dataDir)
	if err != nil {
		return nil, err
	}
	reloader.AddCallback(func(newCfg *config.Config) error {
		if err := applyListFlags(cmd, newCfg); err != nil {
			return err
		}
		config.Set(newCfg)
		send(tui.ConfigReloadedMsg{Config: newCfg})
		return nil
	})
	if err := reloader.Start(); err != nil {
		_ = reloader.Stop()
		return nil, err
	}
	return reloader, nil
}

func startMetrics(ctx context.Context, addr string, m *metrics.Metrics) {
	collector := metrics.NewPrometheusCollector("winlist", "list")
	if err := collector.Collect(ctx, m); err != nil {
		slog.Error("Failed to register metrics", "error", err)
		return
	}
	go func() {
		defer log.RecoverPanic("metrics", nil)
		if err := collector.Serve(ctx, addr); err != nil {
			slog.Error("Failed to serve metrics", "address", addr, "error", err)
		}
	}()
}

// source is the initial content of the list.
type source struct {
	title string
	path  string // empty for stdin
	text  string
	size  int64
	piped bool
}

func readSource(args []string, follow bool) (source, error) {
	if len(args) == 0 || args[0] == "-" {
		if follow {
			return source{}, errors.New("--follow needs a file")
		}
		if term.IsTerminal(os.Stdin.Fd()) {
			return source{}, errors.New("no input: pass a file or pipe lines into winlist")
		}
		bts, err := io.ReadAll(os.Stdin)
		if err != nil {
			return source{}, fmt.Errorf("failed to read stdin: %w", err)
		}
		return source{title: "stdin", text: string(bts), size: int64(len(bts)), piped: true}, nil
	}

	path := args[0]
	bts, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return source{
		title: filepath.Base(path),
		path:  path,
		text:  string(bts),
		size:  int64(len(bts)),
	}, nil
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}

func createDotWinlistDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %q %w", dir, err)
	}

	gitIgnorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitIgnorePath); os.IsNotExist(err) {
		if err := os.WriteFile(gitIgnorePath, []byte("*\n"), 0o644); err != nil {
			return fmt.Errorf("failed to create .gitignore file: %q %w", gitIgnorePath, err)
		}
	}

	return nil
}
