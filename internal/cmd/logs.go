package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log/v2"
	"github.com/charmbracelet/winlist/internal/config"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

const defaultTailLines = 1000

func init() {
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("tail", "t", defaultTailLines, "Show only the last N lines")
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View winlist logs",
	Long:  `View the logs winlist writes to its data directory.`,
	Example: `
# Show the last lines of the log
winlist logs

# Follow the log
winlist logs -f
  `,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		n, _ := cmd.Flags().GetInt("tail")
		debug, _ := cmd.Flags().GetBool("debug")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		cwd, err := ResolveCwd(cmd)
		if err != nil {
			return err
		}
		cfg, err := config.Load(cwd, dataDir, debug)
		if err != nil {
			return err
		}

		path := cfg.LogFile()
		bts, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			cmd.Println("No logs yet:", path)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}

		printer := newLogPrinter(cmd.OutOrStdout())
		for _, line := range lastLines(string(bts), n) {
			printer.print(line)
		}
		if !follow {
			return nil
		}
		return followLog(cmd.Context(), path, int64(len(bts)), printer)
	},
}

// lastLines returns the last n complete lines of text.
func lastLines(text string, n int) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" || n <= 0 {
		return nil
	}
	lines := strings.Split(text, "\n")
	return lines[max(0, len(lines)-n):]
}

func followLog(ctx context.Context, path string, offset int64, printer *logPrinter) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow log file: %w", err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			printer.print(line.Text)
		}
	}
}

// logPrinter pretty prints JSON log records, stamping each with the time
// it was recorded at.
type logPrinter struct {
	out    io.Writer
	logger *log.Logger
	ts     time.Time
}

func newLogPrinter(out io.Writer) *logPrinter {
	p := &logPrinter{out: out}
	p.logger = log.NewWithOptions(out, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	p.logger.SetTimeFunction(func(time.Time) time.Time { return p.ts })
	return p
}

// print writes one line of the log file. Lines that are not JSON records
// are written as is.
func (p *logPrinter) print(line string) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		_, _ = fmt.Fprintln(p.out, line)
		return
	}

	p.ts = time.Time{}
	if ts, ok := record["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			p.ts = t
		}
	}
	levelName, _ := record["level"].(string)
	level, err := log.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		level = log.InfoLevel
	}
	msg, _ := record["msg"].(string)

	keys := make([]string, 0, len(record))
	for k := range record {
		switch k {
		case "time", "level", "msg", "source":
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	keyvals := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		keyvals = append(keyvals, k, record[k])
	}
	p.logger.Log(level, msg, keyvals...)
}
