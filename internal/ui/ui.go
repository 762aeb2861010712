package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"duetrack/internal/assignment"
	"duetrack/internal/config"
	"duetrack/internal/log"
	"duetrack/internal/quote"
)

type mode int

const (
	modeList mode = iota
	modeForm
)

const (
	fieldTitle = iota
	fieldDue
)

// reminderCheckInterval is how often the list re-derives days left and the
// reminder while the program sits idle.
const reminderCheckInterval = time.Minute

type quoteMsg quote.Quote

type clockTickMsg time.Time

// QuoteFeed is the part of the quote fetcher the UI talks to.
type QuoteFeed interface {
	Trigger()
	Updates() <-chan quote.Quote
	Current() (quote.Quote, bool)
}

type Model struct {
	ctx      context.Context
	store    *assignment.Store
	quotes   QuoteFeed
	cfg      config.Config
	progress assignment.Progress
	now      func() time.Time
	logger   *slog.Logger

	records      []assignment.Record
	cursor       int
	mode         mode
	title        textinput.Model
	due          textinput.Model
	focus        int
	bar          progress.Model
	status       string
	confirmDel   bool
	pendingDel   *assignment.Record
	quote        *quote.Quote
	showReminder bool
	// reminderDue is the last computed reminder; the banner is re-raised
	// only when it turns true.
	reminderDue bool
}

// NewModel builds the UI state. quotes may be nil when the panel is
// disabled.
func NewModel(ctx context.Context, store *assignment.Store, quotes QuoteFeed, cfg config.Config) Model {
	title := textinput.New()
	title.Placeholder = "Assignment title"
	title.CharLimit = 256
	title.Width = 40

	due := textinput.New()
	due.Placeholder = assignment.DateLayout
	due.CharLimit = 25
	due.Width = 20

	m := Model{
		ctx:      ctx,
		store:    store,
		quotes:   quotes,
		cfg:      cfg,
		progress: cfg.ProgressSettings(),
		now:      time.Now,
		logger:   log.NewModuleLogger("ui", "model"),
		title:    title,
		due:      due,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		mode:     modeList,
		status:   fmt.Sprintf("Press '%s' to add, '%s' to edit, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Edit, cfg.Keys.Delete),
	}
	if quotes != nil {
		if q, ok := quotes.Current(); ok {
			m.quote = &q
		}
	}
	return m.reload()
}

func Run(ctx context.Context, store *assignment.Store, quotes QuoteFeed, cfg config.Config) error {
	m := NewModel(ctx, store, quotes, cfg)
	program := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	if m.quotes == nil {
		return tickClock()
	}
	return tea.Batch(tickClock(), waitForQuote(m.quotes.Updates()))
}

func tickClock() tea.Cmd {
	return tea.Tick(reminderCheckInterval, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

func waitForQuote(updates <-chan quote.Quote) tea.Cmd {
	return func() tea.Msg {
		q, ok := <-updates
		if !ok {
			return nil
		}
		return quoteMsg(q)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.mode == modeForm {
			return m.updateFormMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case quoteMsg:
		q := quote.Quote(msg)
		m.quote = &q
		return m, waitForQuote(m.quotes.Updates())
	case clockTickMsg:
		return m.checkReminder(), tickClock()
	case tea.WindowSizeMsg:
		m.title.Width = max(msg.Width-30, 10)
		m.bar.Width = min(max(msg.Width-20, 10), 60)
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.records))
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.records))
	case m.cfg.Keys.Add:
		m.store.CancelEdit()
		return m.openForm("", "", "Add mode: fill in the title and due date, Enter to save")
	case m.cfg.Keys.Edit:
		if len(m.records) == 0 {
			m.status = "No assignments to edit"
			return m, nil
		}
		sess, err := m.store.BeginEdit(m.records[m.cursor].ID)
		if err != nil {
			// The record vanished underneath us; the store already logged it.
			return m.reload(), nil
		}
		return m.openForm(sess.Title, sess.Due, fmt.Sprintf("Editing %q, Enter to update", sess.Title))
	case m.cfg.Keys.Delete:
		if len(m.records) == 0 {
			return m, nil
		}
		r := m.records[m.cursor]
		m.confirmDel = true
		m.pendingDel = &r
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", r.Title)
	case m.cfg.Keys.RefreshQuote:
		if m.quotes != nil {
			m.quotes.Trigger()
			m.status = "Fetching a new quote"
		}
	case m.cfg.Keys.Dismiss:
		m.showReminder = false
	}
	return m, nil
}

func (m Model) openForm(title, due, status string) (tea.Model, tea.Cmd) {
	m.mode = modeForm
	m.title.SetValue(title)
	m.due.SetValue(due)
	m.status = status
	return m.focusField(fieldTitle)
}

func (m Model) focusField(field int) (Model, tea.Cmd) {
	m.focus = field
	if field == fieldTitle {
		m.due.Blur()
		return m, m.title.Focus()
	}
	m.title.Blur()
	return m, m.due.Focus()
}

func (m Model) closeForm() Model {
	m.mode = modeList
	m.title.SetValue("")
	m.due.SetValue("")
	m.title.Blur()
	m.due.Blur()
	return m
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel:
		m.store.CancelEdit()
		m = m.closeForm()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.NextField, "shift+tab", "down", "up":
		return m.focusField(1 - m.focus)
	case m.cfg.Keys.Confirm:
		return m.submit()
	}
	var cmd tea.Cmd
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.due, cmd = m.due.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.title.Value())
	if title == "" {
		m.status = "Title cannot be empty"
		return m.focusField(fieldTitle)
	}
	due, err := assignment.ParseDue(m.due.Value())
	if err != nil {
		m.status = fmt.Sprintf("Due date invalid: %v", err)
		return m.focusField(fieldDue)
	}

	editing := m.store.Session().Editing()
	r, err := m.store.Submit(m.ctx, title, due)
	switch {
	case errors.Is(err, assignment.ErrDuplicateTitle):
		m.status = "An assignment with this name already exists."
		return m.focusField(fieldTitle)
	case errors.Is(err, assignment.ErrNotFound):
		m.store.CancelEdit()
		m = m.closeForm().reload()
		m.status = "That assignment no longer exists"
		return m, nil
	case errors.Is(err, assignment.ErrMirror):
		m.status = "Saved locally, but writing to the database failed"
	case err != nil:
		m.logger.Debug("submit rejected", "error", err)
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	case editing:
		m.status = "Updated assignment"
	default:
		m.status = "Added assignment"
	}

	m = m.closeForm().reload()
	m.cursor = m.indexOf(r.ID)
	m.refreshQuoteOnChange()
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		err := m.store.Remove(m.ctx, m.pendingDel.ID)
		m.confirmDel = false
		m.pendingDel = nil
		m = m.reload()
		if err != nil {
			m.status = "Deleted locally, but writing to the database failed"
		} else {
			m.status = "Deleted assignment"
		}
		m.refreshQuoteOnChange()
		return m, nil
	default:
		return m, nil
	}
}

// reload pulls the sorted records and the reminder flag from the store.
// A mutation always re-raises the banner if anything is due soon.
func (m Model) reload() Model {
	m.records = m.store.List()
	m.cursor = clampCursor(m.cursor, len(m.records))
	m.showReminder = m.store.Reminder()
	m.reminderDue = m.showReminder
	return m
}

// checkReminder re-derives the reminder as time passes without mutations.
// A dismissed banner stays dismissed until something new becomes due.
func (m Model) checkReminder() Model {
	due := assignment.HasUpcomingReminder(m.records, m.now())
	if due && !m.reminderDue {
		m.showReminder = true
		m.logger.Debug("assignment entered reminder window")
	}
	if !due {
		m.showReminder = false
	}
	m.reminderDue = due
	return m
}

func (m Model) refreshQuoteOnChange() {
	if m.quotes != nil && m.cfg.Quote.RefreshOnChange {
		m.quotes.Trigger()
	}
}

func (m Model) indexOf(id string) int {
	for i, r := range m.records {
		if r.ID == id {
			return i
		}
	}
	return clampCursor(m.cursor, len(m.records))
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
