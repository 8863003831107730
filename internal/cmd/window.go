package cmd

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/winlist/internal/position"
	"github.com/charmbracelet/winlist/internal/tui/styles"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
)

func init() {
	windowCmd.Flags().Int("items", 0, "Number of items in the list")
	windowCmd.Flags().Float64("estimate", position.DefaultEstimatedHeight, "Height assumed for items without a measurement")
	windowCmd.Flags().Float64("extent", 500, "Height of the viewport")
	windowCmd.Flags().Float64("offset", 0, "Scroll offset of the viewport")
	windowCmd.Flags().Float64("threshold", 0, "Band above the viewport whose items stay in the window")
	windowCmd.Flags().Int("overscan", 0, "Extra items on each side of the window")
	windowCmd.Flags().StringArray("height", nil, "Measured height of an item, as index=height (repeatable)")
	_ = windowCmd.MarkFlagRequired("items")
}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Compute the window of a list without rendering it",
	Long: `Compute which items a list of the given shape would mount.
Items without a measured height are assumed to be --estimate high. The
window covers the viewport plus the --threshold band above it, widened
by --overscan items on each side.`,
	Example: `
# 1000 items of estimated height 50 in a 500 high viewport, scrolled to 1200
winlist window --items 1000 --offset 1200

# Same list, with two measured items and a 100 high band above the viewport
winlist window --items 1000 --offset 1200 --threshold 100 --height 0=120 --height 1=80
  `,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := windowOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := computeWindow(opts)
		if err != nil {
			return err
		}
		if term.IsTerminal(os.Stdout.Fd()) {
			// We're in a TTY: make it fancy.
			lipgloss.Fprintln(cmd.OutOrStdout(), res.table())
			return nil
		}
		res.print(cmd.OutOrStdout())
		return nil
	},
}

type windowOptions struct {
	items     int
	estimate  float64
	extent    float64
	offset    float64
	threshold float64
	overscan  int
	heights   map[int]float64
}

type windowItem struct {
	index    int
	offset   float64
	height   float64
	measured bool
}

type windowResult struct {
	top, length int
	total       float64
	estimate    float64
	items       []windowItem
}

func windowOptionsFromFlags(cmd *cobra.Command) (windowOptions, error) {
	flags := cmd.Flags()
	var opts windowOptions
	opts.items, _ = flags.GetInt("items")
	opts.estimate, _ = flags.GetFloat64("estimate")
	opts.extent, _ = flags.GetFloat64("extent")
	opts.offset, _ = flags.GetFloat64("offset")
	opts.threshold, _ = flags.GetFloat64("threshold")
	opts.overscan, _ = flags.GetInt("overscan")
	heights, _ := flags.GetStringArray("height")

	var err error
	opts.heights, err = parseHeights(heights)
	return opts, err
}

// parseHeights parses index=height pairs. Later pairs win.
func parseHeights(values []string) (map[int]float64, error) {
	heights := make(map[int]float64, len(values))
	var errs []error
	for _, v := range values {
		k, h, ok := strings.Cut(v, "=")
		if !ok {
			errs = append(errs, fmt.Errorf("invalid height %q: expected index=height", v))
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || index < 0 {
			errs = append(errs, fmt.Errorf("invalid height %q: bad index", v))
			continue
		}
		height, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil || height < 0 {
			errs = append(errs, fmt.Errorf("invalid height %q: bad height", v))
			continue
		}
		heights[index] = height
	}
	return heights, errors.Join(errs...)
}

// computeWindow runs the position index the way the windowing controller
// drives it: the threshold band extends the viewport upwards.
func computeWindow(opts windowOptions) (windowResult, error) {
	switch {
	case !(opts.estimate > 0) || math.IsInf(opts.estimate, 1):
		return windowResult{}, fmt.Errorf("--estimate must be positive, got %g", opts.estimate)
	case opts.items < 0:
		return windowResult{}, fmt.Errorf("--items must not be negative, got %d", opts.items)
	case opts.threshold < 0:
		return windowResult{}, fmt.Errorf("--threshold must not be negative, got %g", opts.threshold)
	case opts.overscan < 0:
		return windowResult{}, fmt.Errorf("--overscan must not be negative, got %d", opts.overscan)
	}
	for index := range opts.heights {
		if index >= opts.items {
			return windowResult{}, fmt.Errorf("--height index %d is out of range for %d items", index, opts.items)
		}
	}

	idx := position.New(opts.items,
		position.WithEstimatedHeight(opts.estimate),
		position.WithViewportExtent(opts.extent+opts.threshold),
		position.WithOverscan(opts.overscan),
	)
	// Offsets are float sums, so apply heights in a fixed order.
	for _, index := range slices.Sorted(maps.Keys(opts.heights)) {
		idx.UpdateHeightAtIndex(index, opts.heights[index])
	}
	idx.UpdateScrollPosition(max(0, opts.offset-opts.threshold))

	res := windowResult{
		top:      idx.VisibleIndexTop(),
		length:   idx.VisibleLength(),
		total:    idx.TotalHeight(),
		estimate: idx.EstimatedHeight(),
	}
	for i := res.top; i < res.top+res.length; i++ {
		h, measured := idx.Height(i)
		res.items = append(res.items, windowItem{
			index:    i,
			offset:   idx.Offset(i),
			height:   h,
			measured: measured,
		})
	}
	return res, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (r windowResult) print(w io.Writer) {
	fmt.Fprintf(w, "top %d\nlength %d\ntotal %s\n", r.top, r.length, formatFloat(r.total))
	for _, it := range r.items {
		kind := "estimated"
		if it.measured {
			kind = "measured"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", it.index, formatFloat(it.offset), formatFloat(it.height), kind)
	}
}

func (r windowResult) table() string {
	t := styles.CurrentTheme()
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Index", "Offset", "Height", "").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.TableHeader.Padding(0, 2)
			}
			return lipgloss.NewStyle().Padding(0, 2)
		})
	for _, it := range r.items {
		kind := t.S().Muted.Render("estimated")
		if it.measured {
			kind = t.S().Success.Render(styles.CheckIcon + " measured")
		}
		tbl = tbl.Row(strconv.Itoa(it.index), formatFloat(it.offset), formatFloat(it.height), kind)
	}
	summary := t.S().Title.Render("Window") + " " +
		t.S().Base.Render(fmt.Sprintf("items %d-%d of %s high, unmeasured items %s high",
			r.top, r.top+r.length, formatFloat(r.total), formatFloat(r.estimate)))
	return lipgloss.JoinVertical(lipgloss.Left, summary, tbl.Render())
}
