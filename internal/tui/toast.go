package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/pixgrid/internal/gallery"
)

const maxToasts = 3

// Toast is a notice on screen until it expires
type Toast struct {
	ID     int
	Notice gallery.Notice
}

// Toaster stacks notices in the top-right corner and drops each one after ttl
type Toaster struct {
	toasts []Toast
	nextID int
	ttl    time.Duration
}

// NewToaster creates a toaster whose toasts live for ttl
func NewToaster(ttl time.Duration) *Toaster {
	return &Toaster{ttl: ttl}
}

// Push shows n and returns the command that expires it
func (t *Toaster) Push(n gallery.Notice) tea.Cmd {
	t.nextID++
	id := t.nextID
	t.toasts = append(t.toasts, Toast{ID: id, Notice: n})
	if len(t.toasts) > maxToasts {
		t.toasts = t.toasts[len(t.toasts)-maxToasts:]
	}
	return tea.Tick(t.ttl, func(time.Time) tea.Msg {
		return toastExpiredMsg{ID: id}
	})
}

// Dismiss removes the toast with the given id, if still shown
func (t *Toaster) Dismiss(id int) {
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return
		}
	}
}

// Toasts returns the toasts currently shown, oldest first
func (t *Toaster) Toasts() []Toast {
	return t.toasts
}

// View renders the toasts right-aligned within width
func (t *Toaster) View(width int) string {
	if len(t.toasts) == 0 {
		return ""
	}

	lines := make([]string, 0, len(t.toasts))
	for _, toast := range t.toasts {
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Right, renderToast(toast.Notice, width)))
	}
	return strings.Join(lines, "\n")
}

func renderToast(n gallery.Notice, width int) string {
	style := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("236"))

	prefix := ""
	switch n.Level {
	case gallery.LevelError:
		prefix = "✗ "
		style = style.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("124"))
	case gallery.LevelInfo:
		prefix = "ℹ "
		style = style.Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25"))
	}

	maxText := width - 2
	if maxText < 8 {
		maxText = 8
	}
	return style.Render(truncate(prefix+n.Text, maxText))
}
