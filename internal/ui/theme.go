package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for terminal output.
// Tokyo Night colors.
type Theme struct {
	TextPrimary lipgloss.Color
	TextDim     lipgloss.Color
	Border      lipgloss.Color

	Accent  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

// DefaultTheme is the dark theme used by the CLI.
var DefaultTheme = Theme{
	TextPrimary: lipgloss.Color("#c0caf5"),
	TextDim:     lipgloss.Color("#565f89"),
	Border:      lipgloss.Color("#414868"),

	Accent:  lipgloss.Color("#7aa2f7"), // Blue
	Success: lipgloss.Color("#9ece6a"), // Green
	Warning: lipgloss.Color("#e0af68"), // Amber
	Error:   lipgloss.Color("#f7768e"), // Red/Pink
	Info:    lipgloss.Color("#7dcfff"), // Cyan
}

// Styles provides pre-configured lipgloss styles using the theme.
type Styles struct {
	Base  lipgloss.Style
	Dim   lipgloss.Style
	Title lipgloss.Style
	Label lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Panel lipgloss.Style
}

// NewStyles creates styles bound to r, so color support follows the
// writer r was created for (NO_COLOR and non-terminals render plain text).
func NewStyles(r *lipgloss.Renderer, t Theme) Styles {
	return Styles{
		Base: r.NewStyle().Foreground(t.TextPrimary),
		Dim:  r.NewStyle().Foreground(t.TextDim),
		Title: r.NewStyle().
			Foreground(t.Accent).
			Bold(true),
		Label: r.NewStyle().
			Foreground(t.TextDim).
			Width(10),

		Success: r.NewStyle().Foreground(t.Success),
		Warning: r.NewStyle().Foreground(t.Warning),
		Error:   r.NewStyle().Foreground(t.Error).Bold(true),

		Panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}

// CheckIcon returns a styled check/cross icon.
func CheckIcon(ok bool, s Styles) string {
	if ok {
		return s.Success.Render("✓")
	}
	return s.Error.Render("✗")
}
