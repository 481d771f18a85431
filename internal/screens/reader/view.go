package reader

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/readmind/internal/dialogue"
	"github.com/abhisek/readmind/internal/reading"
	"github.com/abhisek/readmind/internal/ui/layout"
	"github.com/abhisek/readmind/internal/ui/theme"
)

func (r *ReaderScreen) View(width, height int) string {
	if layout.IsCompact(width) {
		textHeight := max(height/2-1, 3)
		inner := width - 4
		return lipgloss.JoinVertical(lipgloss.Left,
			r.renderText(inner, textHeight),
			r.renderPanel(inner, max(height-textHeight-1, 6)),
		)
	}

	textWidth := width/2 - 2
	panelWidth := width - textWidth - 4
	return lipgloss.JoinHorizontal(lipgloss.Top,
		r.renderText(textWidth, height),
		"  ",
		r.renderPanel(panelWidth, height),
	)
}

func (r *ReaderScreen) renderText(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(r.text.Title) + "\n")
	b.WriteString(theme.Dim.Render(fmt.Sprintf("%s · %s · %s", r.text.Author, r.text.Type, r.text.Difficulty)) + "\n\n")

	body := lipgloss.NewStyle().Width(width - 2).Foreground(theme.Text)
	hint := theme.Hint.Width(width - 2)
	for _, seg := range r.text.Segments {
		b.WriteString(body.Render(seg.Content) + "\n")
		if r.showHints && seg.Hint != "" {
			b.WriteString(hint.Render(r.loc.T("Hint")+": "+seg.Hint) + "\n")
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		MaxHeight(height).
		PaddingLeft(1).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (r *ReaderScreen) renderTabs() string {
	names := []string{r.loc.T("Questions"), r.loc.T("Dialogue"), r.loc.T("Notes")}
	tabs := make([]string, len(names))
	for i, name := range names {
		if panel(i) == r.panel {
			tabs[i] = theme.Selected.Render("[" + name + "]")
		} else {
			tabs[i] = theme.Dim.Render(" " + name + " ")
		}
	}
	return strings.Join(tabs, " ")
}

func (r *ReaderScreen) renderPanel(width, height int) string {
	inner := width - 4

	var body string
	switch {
	case r.openErr != nil:
		body = theme.ErrorText.Render(r.loc.T("SessionFailed"))
	case r.sess == nil:
		body = r.spinner.View() + " " + theme.Dim.Render(r.loc.T("OpeningSession"))
	case r.panel == panelQuestions:
		body = r.renderQuestions(inner)
	case r.panel == panelDialogue:
		body = r.renderDialogue(inner)
	case r.panel == panelNotes:
		body = r.renderNotes(inner)
	}

	footer := r.input.View()
	if r.status != "" {
		footer += "\n" + theme.ErrorText.Render(r.status)
	}

	// Tabs (1) and footer stay visible; the body keeps its newest lines.
	bodyHeight := max(height-2-1-lipgloss.Height(footer)-2, 1)
	if r.panel == panelDialogue {
		body = tail(body, bodyHeight)
	} else {
		body = head(body, bodyHeight)
	}

	content := r.renderTabs() + "\n\n" + body + "\n\n" + footer
	return theme.ActiveCard.Width(width).Render(content)
}

func (r *ReaderScreen) renderQuestions(width int) string {
	qs := r.sess.Questions()
	if len(qs) == 0 {
		switch r.sess.QuestionState() {
		case reading.OpIdle, reading.OpPending:
			return r.spinner.View() + " " + theme.Dim.Render(r.loc.T("GeneratingQuestions"))
		default:
			return theme.ErrorText.Width(width).Render(r.loc.T("NoExercises"))
		}
	}

	wrap := lipgloss.NewStyle().Width(width - 4)
	var b strings.Builder
	b.WriteString(theme.Dim.Render(r.loc.Tp("QuestionsCount", len(qs))) + "\n\n")
	for i, v := range qs {
		marker, style := "  ", theme.Unselected
		if i == r.selected {
			marker, style = "▸ ", theme.Selected
		}
		status := ""
		switch {
		case v.Record.Evaluated():
			status = " " + lipgloss.NewStyle().Foreground(theme.Success).Render(strconv.Itoa(v.Record.Result.Score))
		case v.Record.State == reading.OpPending:
			status = " " + r.spinner.View()
		case v.Record.State == reading.OpFailed:
			status = " " + theme.ErrorText.Render("!")
		}
		b.WriteString(marker + theme.Dimension(v.Question.Dimension) + status + "\n")
		b.WriteString(wrap.PaddingLeft(2).Render(style.Render(v.Question.Prompt)) + "\n")
		if i == r.selected {
			b.WriteString(r.renderRecord(v.Record, width))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *ReaderScreen) renderRecord(rec reading.AnswerRecord, width int) string {
	indent := lipgloss.NewStyle().PaddingLeft(2).Width(width - 2)
	switch {
	case rec.Evaluated():
		res := rec.Result
		lines := []string{
			theme.Title.Render(fmt.Sprintf("%s: %d/100", r.loc.T("Score"), res.Score)),
		}
		if rec.Answer != "" {
			lines = append(lines, theme.Dim.Render("› "+rec.Answer))
		}
		if res.Feedback != "" {
			lines = append(lines, theme.Body.Render(r.loc.T("Feedback")+": "+res.Feedback))
		}
		if res.Suggestions != "" {
			lines = append(lines, theme.Hint.Render(r.loc.T("Suggestions")+": "+res.Suggestions))
		}
		return indent.Render(strings.Join(lines, "\n")) + "\n"
	case rec.State == reading.OpPending:
		return indent.Render(r.spinner.View()+" "+theme.Dim.Render(r.loc.T("Evaluating"))) + "\n"
	case rec.State == reading.OpFailed:
		return indent.Render(theme.ErrorText.Render(r.loc.T("EvaluationFailed"))) + "\n"
	}
	return ""
}

func (r *ReaderScreen) renderDialogue(width int) string {
	turns := r.sess.Transcript()
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	if len(turns) == 0 {
		b.WriteString(theme.Dim.Render(r.loc.T("DialoguePlaceholder")))
	}
	for _, t := range turns {
		if t.Role == dialogue.Learner {
			b.WriteString(wrap.Render(theme.Selected.Render(r.loc.T("You")+": ")+theme.Body.Render(t.Text)) + "\n\n")
		} else {
			b.WriteString(wrap.Render(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(r.loc.T("Guide")+": ")+theme.Body.Render(t.Text)) + "\n\n")
		}
	}
	if r.sess.DialogueState() == reading.OpPending {
		b.WriteString(r.spinner.View() + " " + theme.Dim.Render(r.loc.T("Thinking")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *ReaderScreen) renderNotes(width int) string {
	book := r.notesBook()
	list := book.List()

	var b strings.Builder
	b.WriteString(theme.Dim.Render(r.loc.Tp("NotesCount", len(list))) + "\n\n")
	wrap := lipgloss.NewStyle().Width(width - 2).PaddingLeft(2)
	for i, n := range list {
		marker := "  "
		if i == r.noteSel {
			marker = theme.Selected.Render("▸ ")
		}
		tag := theme.Hint.Render(r.loc.T("Draft"))
		if n.Submitted() {
			tag = lipgloss.NewStyle().Foreground(theme.Success).Render(r.loc.T("Submitted"))
		}
		b.WriteString(marker + theme.Dim.Render(n.Time().Format("01-02 15:04")) + " " + tag + "\n")
		b.WriteString(wrap.Render(theme.Body.Render(n.Content)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func head(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}

func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
