package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/pkg/sync/engine"
)

func (m Model) View() string {
	var b strings.Builder
	if m.view == viewContacts {
		m.renderContacts(&b)
	} else {
		m.renderConversation(&b)
	}
	if m.status != "" {
		b.WriteString("\n" + errorStyle.Render(m.status))
	}
	return b.String()
}

func (m Model) renderContacts(b *strings.Builder) {
	b.WriteString(titleStyle.Render("GigaChat") + "\n\n")

	if m.searching {
		b.WriteString("Search: " + m.query + "▌\n\n")
	} else if m.query != "" {
		b.WriteString("Search: " + m.query + "\n\n")
	}

	if len(m.contacts) == 0 {
		if m.query == "" {
			b.WriteString(previewStyle.Render("No chats yet. Press / to search for a user.") + "\n")
		} else {
			b.WriteString(previewStyle.Render("No users found") + "\n")
		}
	}

	selfID := m.engine.Self().ID
	for i, entry := range m.contacts {
		row := m.contactRow(entry, selfID)
		if i == m.cursor {
			row = selectedRowStyle.Render(row)
		}
		b.WriteString(row + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/↓ move · enter open · / search · q quit"))
}

func (m Model) contactRow(entry engine.RecencyEntry, selfID string) string {
	name := entry.Contact.DisplayName(selfID)

	preview := "No messages yet"
	when := ""
	if entry.Last != nil {
		if entry.Last.Deleted {
			preview = "Message deleted"
		} else {
			preview = entry.Last.Content
			when = entry.Last.CreatedAt.Local().Format("Jan 2, 15:04")
		}
	}
	if len(preview) > 40 {
		preview = preview[:37] + "..."
	}

	row := fmt.Sprintf("%-20s %s", name, previewStyle.Render(preview))
	if when != "" {
		row += "  " + timestampStyle.Render(when)
	}
	return row
}

func (m Model) renderConversation(b *strings.Builder) {
	selfID := m.engine.Self().ID
	b.WriteString(titleStyle.Render(m.peer.DisplayName(selfID)) + "\n\n")

	width := m.width
	if width <= 0 {
		width = 80
	}

	for i, msg := range m.timeline {
		line := m.renderMessage(msg, selfID, width)
		if m.selecting && i == m.selCursor {
			line = selectedRowStyle.Render("›") + line
		}
		if m.selected[msg.ID] {
			line = markedStyle.Render("✗ ") + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if m.selecting {
		b.WriteString(helpStyle.Render("space mark · enter delete · esc cancel"))
	} else {
		b.WriteString("> " + m.input + "▌\n")
		b.WriteString(helpStyle.Render("enter send · ctrl+d select for delete · esc back"))
	}
}

func (m Model) renderMessage(msg domain.Message, selfID string, width int) string {
	switch {
	case msg.Deleted:
		who := "you"
		if msg.SenderID != selfID {
			who = m.peer.DisplayName(selfID)
		}
		text := annotationStyle.Render(fmt.Sprintf("Message deleted by %s", who))
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
	case msg.IsNotification:
		text := annotationStyle.Render(msg.Content)
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
	case msg.SenderID == selfID:
		bubble := ownBubbleStyle.Render(msg.Content) + " " + timestampStyle.Render(msg.CreatedAt.Local().Format("15:04"))
		if msg.Provisional {
			bubble += " " + unsentStyle.Render("(sending)")
		}
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	default:
		return peerBubbleStyle.Render(msg.Content) + " " + timestampStyle.Render(msg.CreatedAt.Local().Format("15:04"))
	}
}
