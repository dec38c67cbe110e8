// Package ui provides the terminal views of the task list.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/utils"
)

// textMargin is the room kept beside task text for the pointer, checkbox
// and short id.
const textMargin = 18

type mode int

const (
	modeList mode = iota
	modeAdd
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// Options configures the TUI.
type Options struct {
	// Title is shown in the header, e.g. the storage key.
	Title string
	// Location describes where the list is stored.
	Location string
}

// Model is the bubbletea model for the interactive list. The store renders
// into the model through Render; create the store with
// todo.WithRender(m.Render) and then Bind it.
type Model struct {
	store *todo.Store
	opts  Options
	ctx   context.Context

	tasks    todo.Collection
	visible  []int // indexes into tasks that pass the filter
	cursor   int
	filter   todo.Filter
	mode     mode
	input    textinput.Model
	status   string
	warning  string
	showHelp bool
	width    int
}

// NewModel creates an unbound model.
func NewModel(opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 512
	ti.Width = 50

	return &Model{
		opts:   opts,
		ctx:    context.Background(),
		filter: todo.FilterAll,
		input:  ti,
		status: "Press a to add, space to toggle, d to delete.",
	}
}

// Bind attaches the store the model drives.
func (m *Model) Bind(store *todo.Store) {
	m.store = store
}

// Render replaces the displayed collection. It is the store's render callback.
func (m *Model) Render(tasks todo.Collection) {
	m.tasks = tasks
	m.applyFilter()
}

// Run starts the TUI on the terminal.
func Run(ctx context.Context, m *Model) error {
	if m.store == nil {
		return fmt.Errorf("tui has no store")
	}
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	m.ctx = ctx
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	m.reload()
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == modeAdd {
			return m.updateAdd(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 20 {
			m.input.Width = msg.Width - 10
		}
	}
	return m, nil
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled."
		return m, nil
	case "enter":
		text := m.input.Value()
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		task, err := m.store.Add(m.ctx, text)
		m.noteErr(err)
		if task == nil {
			if err == nil {
				m.status = "Nothing to add."
			}
			return m, nil
		}
		m.status = "Added task."
		m.moveCursorTo(task.ID)
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "a":
		m.mode = modeAdd
		m.showHelp = false
		return m, m.input.Focus()
	case "j", "down":
		m.setCursor(m.cursor + 1)
	case "k", "up":
		m.setCursor(m.cursor - 1)
	case "g", "home":
		m.setCursor(0)
	case "G", "end":
		m.setCursor(len(m.visible) - 1)
	case " ", "x":
		if t, ok := m.selected(); ok {
			_, err := m.store.Toggle(m.ctx, t.ID)
			m.noteErr(err)
			if t.Completed {
				m.status = "Marked open."
			} else {
				m.status = "Marked done."
			}
		}
	case "d", "delete":
		if t, ok := m.selected(); ok {
			_, err := m.store.Remove(m.ctx, t.ID)
			m.noteErr(err)
			m.status = "Deleted task."
		}
	case "0":
		m.setFilter(todo.FilterAll)
	case "1":
		m.setFilter(todo.FilterOpen)
	case "2":
		m.setFilter(todo.FilterDone)
	case "r":
		m.reload()
		m.status = "Reloaded."
	case "h", "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) reload() {
	_, err := m.store.Load(m.ctx)
	m.noteErr(err)
	m.setCursor(m.cursor)
}

// noteErr updates the warning banner after a store call. A successful
// write clears it.
func (m *Model) noteErr(err error) {
	if err != nil {
		m.warning = todo.UserMessage(err)
		return
	}
	if m.store.Err() == nil {
		m.warning = ""
	}
}

func (m *Model) setFilter(f todo.Filter) {
	m.filter = f
	m.applyFilter()
	m.setCursor(0)
	m.status = fmt.Sprintf("Showing %s tasks.", f)
}

func (m *Model) applyFilter() {
	m.visible = m.visible[:0]
	for i, t := range m.tasks {
		if m.filter.Match(t) {
			m.visible = append(m.visible, i)
		}
	}
	m.setCursor(m.cursor)
}

func (m *Model) setCursor(c int) {
	if c >= len(m.visible) {
		c = len(m.visible) - 1
	}
	if c < 0 {
		c = 0
	}
	m.cursor = c
}

func (m *Model) moveCursorTo(id string) {
	for vi, ti := range m.visible {
		if m.tasks[ti].ID == id {
			m.cursor = vi
			return
		}
	}
}

func (m *Model) selected() (todo.Task, bool) {
	if len(m.visible) == 0 {
		return todo.Task{}, false
	}
	return m.tasks[m.visible[m.cursor]], true
}

func (m *Model) View() string {
	var b strings.Builder

	title := "Tasks"
	if m.opts.Title != "" {
		title += " · " + m.opts.Title
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if m.opts.Location != "" {
		b.WriteString(idStyle.Render(m.opts.Location))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.warning != "" {
		b.WriteString(warningStyle.Render("! " + m.warning))
		b.WriteString("\n\n")
	}

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	if m.filter != todo.FilterAll {
		fmt.Fprintf(&b, "Filter: %s (0 to clear)\n\n", m.filter)
	}

	m.writeTasks(&b)

	if m.mode == modeAdd {
		b.WriteString("\nNew task: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter to add · esc to cancel"))
		b.WriteString("\n")
		return b.String()
	}

	open, done := m.tasks.Counts()
	fmt.Fprintf(&b, "\n%d open, %d done\n", open, done)
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("a add · space toggle · d delete · 0/1/2 filter · r reload · h help · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) writeTasks(b *strings.Builder) {
	if len(m.tasks) == 0 {
		b.WriteString("  No tasks yet.\n")
		return
	}
	if len(m.visible) == 0 {
		fmt.Fprintf(b, "  No %s tasks.\n", m.filter)
		return
	}
	for vi, ti := range m.visible {
		t := m.tasks[ti]
		pointer := "  "
		if vi == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		text := utils.SingleLine(t.Text)
		if m.width > textMargin {
			text = utils.Truncate(text, m.width-textMargin)
		}
		if t.Completed {
			text = doneStyle.Render(text)
		}
		fmt.Fprintf(b, "%s%s %s %s\n", pointer, Checkbox(t), text, idStyle.Render(ShortID(t.ID)))
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a            Add a task\n")
	b.WriteString("  enter        Confirm new task\n")
	b.WriteString("  esc          Cancel new task\n")
	b.WriteString("  space, x     Toggle done\n")
	b.WriteString("  d            Delete task\n")
	b.WriteString("  j/k, arrows  Move\n")
	b.WriteString("  0            Show all\n")
	b.WriteString("  1            Show open\n")
	b.WriteString("  2            Show done\n")
	b.WriteString("  r            Reload from storage\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
}
