package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/samber/lo"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/router"
	"github.com/abhisek/readmind/internal/screen"
	"github.com/abhisek/readmind/internal/ui/components"
	"github.com/abhisek/readmind/internal/ui/layout"
	"github.com/abhisek/readmind/internal/ui/theme"
)

// Opener builds the screen for reading t.
type Opener func(t *catalog.Text) screen.Screen

// HomeScreen lists the catalog with texts for the learner's weakest
// dimension first, next to the capability profile.
type HomeScreen struct {
	loc     *i18n.Localizer
	profile capability.Profile
	weakest capability.Dimension
	texts   []*catalog.Text
	menu    components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

func New(cat *catalog.Catalog, profile capability.Profile, loc *i18n.Localizer, open Opener) (*HomeScreen, error) {
	weakest, err := capability.Weakest(profile)
	if err != nil {
		return nil, err
	}

	texts := Ordered(cat, weakest)
	items := lo.Map(texts, func(t *catalog.Text, _ int) components.MenuItem {
		label := t.Title
		if t.Targets(weakest) {
			label = "★ " + label
		}
		return components.MenuItem{
			Label:  label,
			Detail: detail(t),
			Action: func() tea.Cmd { return router.Push(open(t)) },
		}
	})

	return &HomeScreen{
		loc:     loc,
		profile: profile.Clone(),
		weakest: weakest,
		texts:   texts,
		menu:    components.NewMenu(items),
	}, nil
}

// Ordered returns recommended texts for d first, then the rest of the
// catalog in catalog order.
func Ordered(cat *catalog.Catalog, d capability.Dimension) []*catalog.Text {
	recommended := cat.Recommend(d)
	rest := lo.Filter(cat.All(), func(t *catalog.Text, _ int) bool {
		return !t.Targets(d)
	})
	return append(recommended, rest...)
}

func detail(t *catalog.Text) string {
	dims := lo.Map(t.TargetCapabilities, func(d capability.Dimension, _ int) string {
		return string(d)
	})
	return fmt.Sprintf("%s · %s · %s", t.Type, t.Difficulty, strings.Join(dims, " "))
}

// Selected returns the highlighted text.
func (h *HomeScreen) Selected() *catalog.Text {
	if h.menu.Selected < 0 || h.menu.Selected >= len(h.texts) {
		return nil
	}
	return h.texts[h.menu.Selected]
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) Title() string {
	return h.loc.T("SelectText")
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: h.loc.T("Navigate")},
		{Key: "Enter", Description: h.loc.T("Select")},
		{Key: "q", Description: h.loc.T("Quit")},
	}
}

func (h *HomeScreen) View(width, height int) string {
	list := theme.Title.Render(h.loc.T("SelectText")) + "\n" +
		theme.Hint.Render(h.loc.Td("Recommended", map[string]any{"Dimension": h.weakest.DisplayName()})) + "\n\n" +
		h.menu.View()

	profileWidth := 44
	profile := theme.Card.Render(
		theme.Title.Render(h.loc.T("ProfileTitle")) + "\n\n" +
			components.ProfileBars(h.profile, profileWidth-4) + "\n\n" +
			theme.Dim.Render(h.weakest.Info().Description),
	)

	if layout.IsCompact(width) {
		return lipgloss.NewStyle().Padding(1, 2).Render(list + "\n" + profile)
	}

	listWidth := max(width-profileWidth-6, 20)
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(list),
		lipgloss.NewStyle().Width(profileWidth).Render(profile),
	))
}
