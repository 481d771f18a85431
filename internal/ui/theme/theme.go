package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/readmind/internal/capability"
)

// Palette: ink on dark paper, one accent per capability dimension.
var (
	Primary   = lipgloss.Color("#60A5FA") // Sky
	Secondary = lipgloss.Color("#34D399") // Jade
	Accent    = lipgloss.Color("#FBBF24") // Amber
	Success   = lipgloss.Color("#4ADE80")
	Error     = lipgloss.Color("#F87171")
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

// DimensionColor tints each capability consistently across screens.
var DimensionColor = map[capability.Dimension]color.Color{
	capability.R1: lipgloss.Color("#60A5FA"),
	capability.R2: lipgloss.Color("#34D399"),
	capability.R3: lipgloss.Color("#A78BFA"),
	capability.R4: lipgloss.Color("#FB923C"),
}

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(Accent).
		Italic(true)

	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	ActiveCard = Card.
			BorderForeground(Primary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)

// Dimension renders a dimension tag in its color.
func Dimension(d capability.Dimension) string {
	c, ok := DimensionColor[d]
	if !ok {
		c = TextDim
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(string(d))
}
