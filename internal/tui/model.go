// Package tui renders the chat client in the terminal. It consumes only the
// engine's exposed operations: the ordered contact list, the active timeline,
// select/send/delete and search.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/engine"
)

const opTimeout = 10 * time.Second

type view int

const (
	viewContacts view = iota
	viewConversation
)

type refreshMsg struct{}

type opErrMsg struct{ err error }

// Model is the bubbletea model for the chat client.
type Model struct {
	engine *engine.Engine

	view      view
	contacts  []engine.RecencyEntry
	cursor    int
	searching bool
	query     string

	peer     domain.Contact
	timeline []domain.Message
	input    string

	selecting bool
	selCursor int
	selected  map[string]bool

	status string
	width  int
	height int
}

// New builds the model on a started engine.
func New(e *engine.Engine) Model {
	m := Model{
		engine:   e,
		selected: make(map[string]bool),
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.engine.Notify())
}

// waitForUpdate blocks on the engine's coalesced change signal.
func waitForUpdate(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return refreshMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		m.reload()
		return m, waitForUpdate(m.engine.Notify())

	case opErrMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.engine.Deselect()
			return m, tea.Quit
		}
		if m.view == viewContacts {
			return m.updateContacts(msg)
		}
		return m.updateConversation(msg)
	}
	return m, nil
}

func (m Model) updateContacts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.query = ""
			m.reload()
		case "enter":
			m.searching = false
		case "backspace":
			if len(m.query) > 0 {
				m.query = m.query[:len(m.query)-1]
				m.reload()
			}
		default:
			if len(msg.Runes) > 0 {
				m.query += string(msg.Runes)
				m.reload()
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.contacts)-1 {
			m.cursor++
		}
	case "/":
		m.searching = true
		m.query = ""
	case "enter":
		if m.cursor < len(m.contacts) {
			m.peer = m.contacts[m.cursor].Contact
			if err := m.engine.SelectConversation(m.peer.ID); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.view = viewConversation
			m.input = ""
			m.status = ""
			m.reload()
		}
	case "q":
		m.engine.Deselect()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateConversation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.selecting {
		switch msg.String() {
		case "esc":
			m.selecting = false
			m.selected = make(map[string]bool)
		case "up", "k":
			if m.selCursor > 0 {
				m.selCursor--
			}
		case "down", "j":
			if m.selCursor < len(m.timeline)-1 {
				m.selCursor++
			}
		case " ":
			if m.selCursor < len(m.timeline) {
				id := m.timeline[m.selCursor].ID
				m.selected[id] = !m.selected[id]
			}
		case "enter":
			ids := m.selectedIDs()
			m.selecting = false
			m.selected = make(map[string]bool)
			if len(ids) > 0 {
				return m, m.deleteCmd(ids)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.engine.Deselect()
		m.view = viewContacts
		m.input = ""
		m.status = ""
		m.reload()
	case "ctrl+d":
		m.selecting = true
		m.selCursor = len(m.timeline) - 1
		if m.selCursor < 0 {
			m.selCursor = 0
		}
	case "enter":
		text := m.input
		m.input = ""
		if text != "" {
			return m, m.sendCmd(text)
		}
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		if len(msg.Runes) > 0 {
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) sendCmd(text string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := e.SendMessage(ctx, text)
		return opErrMsg{err: err}
	}
}

func (m Model) deleteCmd(ids []string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opErrMsg{err: e.DeleteMessages(ctx, ids)}
	}
}

func (m *Model) selectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for id, on := range m.selected {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

// reload snapshots engine state for the current view.
func (m *Model) reload() {
	m.contacts = m.engine.Contacts(m.query)
	if m.cursor >= len(m.contacts) {
		m.cursor = len(m.contacts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.view == viewConversation {
		m.timeline = m.engine.Timeline(m.peer.ID)
	}
}
