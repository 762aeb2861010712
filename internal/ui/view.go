package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"duetrack/internal/assignment"
	"duetrack/internal/config"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).MarginBottom(1)
	quoteStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 2).
			Align(lipgloss.Center)
	authorStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#AAAAAA"))
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#F5A623")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#444444")).
			PaddingLeft(1)
	selectedCardStyle = cardStyle.BorderForeground(lipgloss.Color("#7D56F4"))
	cardTitleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Assignment Tracker"))
	b.WriteString("\n")
	if m.quotes != nil {
		b.WriteString(m.renderQuote())
		b.WriteString("\n")
	}
	if m.showReminder {
		b.WriteString(bannerStyle.Render(fmt.Sprintf("You have assignments due within the next 24 hours! (%s to dismiss)", m.cfg.Keys.Dismiss)))
		b.WriteString("\n")
	}

	if m.mode == modeForm {
		b.WriteString("\n")
		b.WriteString(m.renderForm())
	}

	b.WriteString("\nUpcoming Assignments\n\n")
	if len(m.records) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("No assignments yet. Press '%s' to add one.", m.cfg.Keys.Add)))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderQuote() string {
	if m.quote == nil {
		return quoteStyle.Render("Loading quote...")
	}
	return quoteStyle.Render(fmt.Sprintf("%q\n%s", m.quote.Text, authorStyle.Render("- "+m.quote.Author)))
}

func (m Model) renderForm() string {
	var b strings.Builder
	b.WriteString("Assignment Title: ")
	b.WriteString(m.title.View())
	b.WriteString("\nDue Date:         ")
	b.WriteString(m.due.View())
	b.WriteString("\n")
	action := "Add Assignment"
	if m.store.Session().Editing() {
		action = "Update Assignment"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("[%s] %s • %s switch field • %s cancel",
		m.cfg.Keys.Confirm, action, m.cfg.Keys.NextField, m.cfg.Keys.Cancel)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderList() string {
	now := m.now()
	var b strings.Builder
	for i, r := range m.records {
		style := cardStyle
		cursor := " "
		if i == m.cursor && m.mode == modeList {
			style = selectedCardStyle
			cursor = ">"
		}
		pct := assignment.ProgressPercent(r.Due, now, m.progress)
		card := fmt.Sprintf("%s\n%s\n%s\n%s",
			cardTitleStyle.Render(r.Title),
			dimStyle.Render("Due on "+r.DueString()),
			dimStyle.Render(daysLeftLabel(assignment.DaysLeft(r.Due, now))),
			m.bar.ViewAs(float64(pct)/100),
		)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cursor+" ", style.Render(card)))
		b.WriteString("\n")
	}
	return b.String()
}

func daysLeftLabel(n int) string {
	if n == 1 {
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", n)
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s delete • %s new quote • %s dismiss • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Delete, k.RefreshQuote, k.Dismiss, k.Quit)
}
