package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/ui/theme"
)

// ScoreBar is a horizontal bar for a 0-100 score.
type ScoreBar struct {
	Label string
	Score int
	Width int

	// Highlight marks the bar, e.g. the weakest dimension.
	Highlight bool
	Color     lipgloss.Style
}

func (p ScoreBar) View() string {
	label := theme.Body.Render(p.Label)
	if p.Highlight {
		label = theme.Hint.Render(p.Label)
	}
	suffix := fmt.Sprintf(" %3d", p.Score)

	barWidth := max(p.Width-lipgloss.Width(label)-len(suffix)-2, 4)
	filled := min(max(barWidth*p.Score/capability.MaxScore, 0), barWidth)

	return label + "  " +
		p.Color.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		theme.Dim.Render(suffix)
}

// ProfileBars renders one bar per dimension in canonical order with the
// weakest dimension highlighted. Labels are padded to line the bars up.
func ProfileBars(p capability.Profile, width int) string {
	weakest, _ := capability.Weakest(p)

	labelWidth := 0
	for _, d := range capability.All {
		labelWidth = max(labelWidth, lipgloss.Width(d.DisplayName()))
	}

	lines := make([]string, 0, len(capability.All))
	for _, d := range capability.All {
		name := d.DisplayName()
		name += strings.Repeat(" ", labelWidth-lipgloss.Width(name))
		if d == weakest {
			name += " ◀"
		} else {
			name += "  "
		}
		lines = append(lines, ScoreBar{
			Label:     name,
			Score:     p[d],
			Width:     width,
			Highlight: d == weakest,
			Color:     lipgloss.NewStyle().Background(theme.DimensionColor[d]),
		}.View())
	}
	return strings.Join(lines, "\n")
}
