package app

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/reading"
	"github.com/abhisek/readmind/internal/router"
	"github.com/abhisek/readmind/internal/screen"
	"github.com/abhisek/readmind/internal/screens/home"
	"github.com/abhisek/readmind/internal/screens/reader"
	"github.com/abhisek/readmind/internal/screens/welcome"
	"github.com/abhisek/readmind/internal/ui/layout"
)

// SessionFactory opens a reading session for a text and learner profile.
type SessionFactory func(ctx context.Context, t *catalog.Text, p capability.Profile) (*reading.Session, error)

// Options configure the terminal reader.
type Options struct {
	Catalog    *catalog.Catalog
	Profile    capability.Profile
	NewSession SessionFactory
	Lang       string
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	loc     *i18n.Localizer
	weakest capability.Dimension
	width   int
	height  int
}

func newAppModel(opts Options) (AppModel, error) {
	if opts.Catalog == nil || opts.NewSession == nil {
		return AppModel{}, errors.New("app: catalog and session factory are required")
	}
	weakest, err := capability.Weakest(opts.Profile)
	if err != nil {
		return AppModel{}, err
	}

	loc := i18n.New(opts.Lang)
	profile := opts.Profile.Clone()
	open := func(t *catalog.Text) screen.Screen {
		return reader.New(t, loc, func(ctx context.Context, t *catalog.Text) (*reading.Session, error) {
			return opts.NewSession(ctx, t, profile)
		})
	}
	homeScreen, err := home.New(opts.Catalog, profile, loc, open)
	if err != nil {
		return AppModel{}, err
	}

	splash := welcome.New(loc, func() screen.Screen { return homeScreen })

	return AppModel{
		router:  router.New(splash),
		loc:     loc,
		weakest: weakest,
	}, nil
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.router.CloseAll()
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		case "q":
			if !m.capturesInput() {
				m.router.CloseAll()
				return m, tea.Quit
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) capturesInput() bool {
	c, ok := m.router.Active().(screen.InputCapturer)
	return ok && c.CapturesInput()
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the frame: header with the focus dimension, the active
// screen and its key hints.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	status := m.loc.Td("Weakest", map[string]any{"Dimension": m.weakest}) + " "
	header := layout.RenderHeader(m.loc.T("AppTitle"), active.Title(), status, m.width)

	var hints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	} else {
		hints = []layout.KeyHint{
			{Key: "Esc", Description: m.loc.T("Back")},
			{Key: "Ctrl+C", Description: m.loc.T("Quit")},
		}
	}
	footer := layout.RenderFooter(hints, m.width)

	content := m.router.View(m.width, layout.ContentHeight(header, footer, m.height))
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the terminal reader and blocks until the learner quits.
func Run(opts Options) error {
	m, err := newAppModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m).Run()
	return err
}
