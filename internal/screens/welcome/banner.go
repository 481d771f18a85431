package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readmind/internal/ui/theme"
)

const bannerArt = `
 ██████╗ ███████╗ █████╗ ██████╗ ███╗   ███╗██╗███╗   ██╗██████╗
 ██╔══██╗██╔════╝██╔══██╗██╔══██╗████╗ ████║██║████╗  ██║██╔══██╗
 ██████╔╝█████╗  ███████║██║  ██║██╔████╔██║██║██╔██╗ ██║██║  ██║
 ██╔══██╗██╔══╝  ██╔══██║██║  ██║██║╚██╔╝██║██║██║╚██╗██║██║  ██║
 ██║  ██║███████╗██║  ██║██████╔╝██║ ╚═╝ ██║██║██║ ╚████║██████╔╝
 ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚═╝     ╚═╝╚═╝╚═╝  ╚═══╝╚═════╝`

const bannerCompact = "R E A D M I N D"

// RenderBanner returns the block-letter banner, or a spaced-out fallback
// for terminals narrower than the art.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < lipgloss.Width(bannerArt)+2 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
