package styles

import (
	"image/color"
	"sync"

	"charm.land/lipgloss/v2"
)

type Theme struct {
	Name   string
	IsDark bool

	Primary   color.Color
	Secondary color.Color
	Tertiary  color.Color
	Accent    color.Color

	BgBase        color.Color
	BgBaseLighter color.Color
	BgSubtle      color.Color
	BgOverlay     color.Color

	FgBase      color.Color
	FgMuted     color.Color
	FgHalfMuted color.Color
	FgSubtle    color.Color
	FgSelected  color.Color

	Border      color.Color
	BorderFocus color.Color

	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color

	White color.Color

	// Table header for the window command.
	TableHeader lipgloss.Style

	stylesOnce sync.Once
	styles     *Styles
}

type Styles struct {
	Base   lipgloss.Style
	Muted  lipgloss.Style
	Subtle lipgloss.Style
	Title  lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Status bar.
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
}

// S returns the styles derived from the theme's colors.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)
	return &Styles{
		Base:   base,
		Muted:  base.Foreground(t.FgMuted),
		Subtle: base.Foreground(t.FgSubtle),
		Title:  base.Foreground(t.Accent).Bold(true),

		Success: base.Foreground(t.Success),
		Error:   base.Foreground(t.Error),
		Warning: base.Foreground(t.Warning),
		Info:    base.Foreground(t.Info),

		StatusBar:   base.Background(t.BgSubtle).Padding(0, 1),
		StatusKey:   base.Foreground(t.FgMuted).Background(t.BgSubtle),
		StatusValue: base.Foreground(t.FgSelected).Background(t.BgSubtle).Bold(true),
	}
}

var (
	currentTheme     *Theme
	currentThemeOnce sync.Once
)

// CurrentTheme returns the active theme.
func CurrentTheme() *Theme {
	currentThemeOnce.Do(func() {
		currentTheme = NewCharmtoneTheme()
	})
	return currentTheme
}
