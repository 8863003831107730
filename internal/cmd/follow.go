package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/winlist/internal/tui"
	"github.com/nxadm/tail"
)

// Lines read while following are batched so a burst of writes becomes one
// append.
const followFlushInterval = 50 * time.Millisecond

// followFile sends the lines written to path after offset until ctx is
// done.
func followFile(ctx context.Context, path string, offset int64, send func(tea.Msg)) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow %s: %w", path, err)
	}
	defer t.Cleanup()

	ticker := time.NewTicker(followFlushInterval)
	defer ticker.Stop()

	var pending []string
	flush := func() {
		if len(pending) == 0 {
			return
		}
		send(tui.AppendLinesMsg{Lines: pending})
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return t.Stop()
		case line, ok := <-t.Lines:
			if !ok {
				flush()
				return t.Err()
			}
			if line.Err != nil {
				flush()
				return line.Err
			}
			pending = append(pending, line.Text)
		case <-ticker.C:
			flush()
		}
	}
}
