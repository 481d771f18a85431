package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readmind/internal/capability"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	}
	return tea.KeyPressMsg{Code: rune(s[0]), Text: s}
}

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "a", Disabled: true},
		{Label: "b"},
		{Label: "c", Disabled: true},
		{Label: "d"},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}
	m, _ = m.Update(key("down"))
	if m.Selected != 3 {
		t.Fatalf("after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(key("down"))
	if m.Selected != 3 {
		t.Fatalf("down at end moved to %d", m.Selected)
	}
	m, _ = m.Update(key("up"))
	if m.Selected != 1 {
		t.Fatalf("after up = %d, want 1", m.Selected)
	}
}

func TestMenuEnterRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{{Label: "open", Action: func() tea.Cmd { ran = true; return nil }}})
	m.Update(key("enter"))
	if !ran {
		t.Fatal("enter should run the selected action")
	}
}

func TestProfileBars(t *testing.T) {
	out := ProfileBars(capability.SampleProfile(), 70)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if !strings.Contains(lines[3], "R4 Evaluate & Reflect") || !strings.Contains(lines[3], "◀") {
		t.Errorf("weakest dimension should be marked: %q", lines[3])
	}
	if strings.Contains(lines[0], "◀") {
		t.Error("only the weakest dimension is marked")
	}
	if !strings.Contains(lines[0], " 85") {
		t.Errorf("score missing: %q", lines[0])
	}
}
