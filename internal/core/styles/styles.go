// Package styles provides the shared lipgloss styles for CLI output.
package styles

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/colonyops/cadence/internal/core/notify"
	"github.com/colonyops/cadence/internal/core/progress"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	HeaderStyle  lipgloss.Style
	TopicStyle   lipgloss.Style
	PatternStyle lipgloss.Style
	MutedStyle   lipgloss.Style
	IDStyle      lipgloss.Style
	DividerStyle lipgloss.Style

	SolvedStyle   lipgloss.Style
	UnsolvedStyle lipgloss.Style
	DueStyle      lipgloss.Style

	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	InfoStyle    lipgloss.Style

	BoxStyle lipgloss.Style
)

// ColorPool is used for deterministic color hashing of topics.
var ColorPool []lipgloss.Color

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	primary := lipgloss.Color(p.Primary)
	secondary := lipgloss.Color(p.Secondary)
	fg := lipgloss.Color(p.Foreground)
	muted := lipgloss.Color(p.Muted)
	surface := lipgloss.Color(p.Surface)
	success := lipgloss.Color(p.Success)
	warning := lipgloss.Color(p.Warning)
	errc := lipgloss.Color(p.Error)

	HeaderStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
	TopicStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
	PatternStyle = lipgloss.NewStyle().Foreground(secondary)
	MutedStyle = lipgloss.NewStyle().Foreground(muted)
	IDStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	DividerStyle = lipgloss.NewStyle().Foreground(surface)

	SolvedStyle = lipgloss.NewStyle().Foreground(success)
	UnsolvedStyle = lipgloss.NewStyle().Foreground(fg)
	DueStyle = lipgloss.NewStyle().Foreground(warning).Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(success)
	WarningStyle = lipgloss.NewStyle().Foreground(warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(errc).Bold(true)
	InfoStyle = lipgloss.NewStyle().Foreground(secondary)

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 1)

	ColorPool = []lipgloss.Color{primary, secondary, success, warning, errc}
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

// ColorForString returns a deterministic color for a given string.
func ColorForString(s string) lipgloss.Color {
	var hash uint32
	for _, c := range s {
		hash = hash*31 + uint32(c)
	}
	return ColorPool[hash%uint32(len(ColorPool))]
}

// StatusBadge renders an item's status, highlighting items due by today.
func StatusBadge(it progress.Item, due bool) string {
	switch {
	case due:
		return DueStyle.Render("due")
	case it.IsSolved():
		return SolvedStyle.Render("solved")
	default:
		return UnsolvedStyle.Render("unsolved")
	}
}

// LevelStyle returns the style for a notification level.
func LevelStyle(l notify.Level) lipgloss.Style {
	switch l {
	case notify.LevelSuccess:
		return SuccessStyle
	case notify.LevelWarning:
		return WarningStyle
	case notify.LevelError:
		return ErrorStyle
	default:
		return InfoStyle
	}
}

func strPtr(s string) *string { return &s }

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	cfg.Document.Color = strPtr(p.Foreground)
	cfg.Paragraph.Color = strPtr(p.Foreground)

	cfg.Heading.Color = strPtr(p.Primary)
	cfg.H1.Color = strPtr(p.Foreground)
	cfg.H1.BackgroundColor = strPtr(p.Surface)
	cfg.H2.Color = strPtr(p.Primary)
	cfg.H3.Color = strPtr(p.Primary)

	cfg.BlockQuote.Color = strPtr(p.Muted)
	cfg.HorizontalRule.Color = strPtr(p.Muted)

	cfg.Link.Color = strPtr(p.Secondary)
	cfg.LinkText.Color = strPtr(p.Secondary)

	cfg.Code.Color = strPtr(p.Secondary)
	cfg.CodeBlock.Color = strPtr(p.Muted)

	return cfg
}

// RenderMarkdown renders md for a terminal of the given width.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
