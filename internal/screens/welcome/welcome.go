package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/router"
	"github.com/abhisek/readmind/internal/screen"
	"github.com/abhisek/readmind/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	bookEnd      = 400 * time.Millisecond
	bannerEnd    = 1200 * time.Millisecond
)

// Pages turn while the banner fades in.
var bookFrames = []string{
	`   ________   ________
  /        \ /        \
 |  ~~~~~~  |  ~~~~~~  |
 |  ~~~~    |  ~~~~~   |
 |  ~~~~~~  |  ~~~     |
  \________/ \________/`,
	`   ________   ________
  /        \ /       /
 |  ~~~~~~  |  ~~~~~ /
 |  ~~~~    |  ~~~  /
 |  ~~~~~~  |  ~~  /
  \________/ \____/`,
}

type tickMsg time.Time

// WelcomeScreen is the splash shown on start. Any key replaces it with the
// catalog; there is no automatic transition.
type WelcomeScreen struct {
	loc          *i18n.Localizer
	next         func() screen.Screen
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

func New(loc *i18n.Localizer, next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{loc: loc, next: next}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		w.elapsed += tickInterval
		w.tickCount++
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.transition()
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	return router.Replace(w.next())
}

func (w *WelcomeScreen) View(width, height int) string {
	frame := 0
	if w.elapsed >= bookEnd {
		frame = w.tickCount / 4 % len(bookFrames)
	}
	sections := []string{lipgloss.NewStyle().Foreground(theme.Secondary).Render(bookFrames[frame])}

	if w.elapsed >= bookEnd {
		sections = append(sections, "", RenderBanner(width), "",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(w.loc.T("AppTagline")))
	}
	if w.elapsed >= bannerEnd {
		sections = append(sections, "", theme.Dim.Italic(true).Render(w.loc.T("PressAnyKey")))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
