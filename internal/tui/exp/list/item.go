package list

import (
	"strconv"
	"strings"
)

// Item is one entry of the list.
type Item interface {
	ID() string
	// Render returns the item's content for the given width. The list
	// wraps or truncates the result.
	Render(width int) string
}

type textItem struct {
	id   string
	text string
}

// NewTextItem creates an item rendering text as is.
func NewTextItem(id, text string) Item {
	return textItem{id: id, text: text}
}

func (t textItem) ID() string { return t.id }

func (t textItem) Render(int) string { return t.text }

// Lines splits text into one item per line, numbering them from start.
// Trailing carriage returns are dropped.
func Lines(text string, start int) []Item {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return LineItems(strings.Split(text, "\n"), start)
}

// LineItems makes one item per element of lines, blank ones included,
// numbering them from start. Trailing carriage returns are dropped.
func LineItems(lines []string, start int) []Item {
	items := make([]Item, len(lines))
	for i, line := range lines {
		items[i] = NewTextItem(strconv.Itoa(start+i), strings.TrimSuffix(line, "\r"))
	}
	return items
}
