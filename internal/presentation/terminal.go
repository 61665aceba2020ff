package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const barCells = 20

type palette struct {
	text   lipgloss.Color
	muted  lipgloss.Color
	border lipgloss.Color
	accent lipgloss.Color
}

var (
	lightPalette = palette{
		text:   lipgloss.Color("#1F2937"),
		muted:  lipgloss.Color("#6B7280"),
		border: lipgloss.Color("#D1D5DB"),
		accent: lipgloss.Color("#2563EB"),
	}
	darkPalette = palette{
		text:   lipgloss.Color("#F3F4F6"),
		muted:  lipgloss.Color("#9CA3AF"),
		border: lipgloss.Color("#374151"),
		accent: lipgloss.Color("#60A5FA"),
	}
)

func paletteFor(theme *Theme) palette {
	if theme != nil && theme.Dark() {
		return darkPalette
	}
	return lightPalette
}

// RenderTerminal writes one bordered card per result.
func RenderTerminal(w io.Writer, cards []Card, theme *Theme) error {
	p := paletteFor(theme)

	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, lipgloss.NewStyle().Foreground(p.muted).Render("Upload MRI scans to begin diagnosis."))
		return err
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(p.accent).
		Render(fmt.Sprintf("Analysis Results - %d file(s) processed", len(cards)))
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, c := range cards {
		if _, err := fmt.Fprintln(w, renderCard(c, p)); err != nil {
			return err
		}
	}
	return nil
}

func renderCard(c Card, p palette) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(p.text).Render(c.Filename)
	stamp := lipgloss.NewStyle().Foreground(p.muted).Render(c.Timestamp)

	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if c.BandColor != "" {
		badge = badge.Foreground(lipgloss.Color(c.BandColor))
	}

	lines := []string{
		title + "  " + badge.Render(c.Confidence+"% confidence"),
		stamp,
		"",
		label(p, "Prediction") + lipgloss.NewStyle().Bold(true).Foreground(p.text).Render(c.Prediction),
		label(p, "File Size") + c.SizeMB + " MB",
	}

	if len(c.Bars) > 0 {
		lines = append(lines, "")
		for _, b := range c.Bars {
			lines = append(lines, fmt.Sprintf("%-12s %s %6.2f%%", b.Label, bar(b.Width, p), b.Percent))
		}
	}
	if c.HasHeatmap {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(p.muted).Render("Heatmap available"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func label(p palette, s string) string {
	return lipgloss.NewStyle().Foreground(p.muted).Render(fmt.Sprintf("%-11s", s))
}

func bar(width float64, p palette) string {
	filled := int(width/100*barCells + 0.5)
	return lipgloss.NewStyle().Foreground(p.accent).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(p.border).Render(strings.Repeat("░", barCells-filled))
}

// RenderProgress returns a one-line progress indicator for a pipeline phase.
func RenderProgress(phase string, percent float64, theme *Theme) string {
	p := paletteFor(theme)
	percent = clamp(percent, 0, 100)
	return fmt.Sprintf("%-10s %s %3.0f%%",
		lipgloss.NewStyle().Foreground(p.muted).Render(phase),
		bar(percent, p), percent)
}
