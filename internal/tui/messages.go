package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/pixgrid/internal/gallery"
	"github.com/strrl/pixgrid/pkg/models"
)

// Message types for async operations
type (
	// submitQueryMsg submits a query as if typed into the search bar
	submitQueryMsg struct {
		Query string
	}

	// FetchCompletedMsg carries a finished page fetch back to the event loop
	FetchCompletedMsg struct {
		Result gallery.Result[models.Image]
	}

	// scrollMsg starts a smooth scroll to the row holding item Anchor
	scrollMsg struct {
		Anchor     int
		Generation uint64
	}

	// scrollStepMsg moves the viewport one step closer to Target
	scrollStepMsg struct {
		Target int
	}

	// toastExpiredMsg removes a toast
	toastExpiredMsg struct {
		ID int
	}

	// imageOpenedMsg reports the outcome of opening an image URL
	imageOpenedMsg struct {
		URL   string
		Error error
	}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time
)

const scrollStepInterval = 16 * time.Millisecond

func submitQueryCmd(query string) tea.Cmd {
	return func() tea.Msg {
		return submitQueryMsg{Query: query}
	}
}

// fetchCmd runs req off the event loop
func fetchCmd(ctx context.Context, c *gallery.Controller[models.Image], req gallery.Request) tea.Cmd {
	return func() tea.Msg {
		return FetchCompletedMsg{Result: c.Fetch(ctx, req)}
	}
}

// scrollAfterCmd waits for the layout to settle before scrolling to anchor
func scrollAfterCmd(delay time.Duration, anchor int, generation uint64) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return scrollMsg{Anchor: anchor, Generation: generation}
	})
}

func scrollStepCmd(target int) tea.Cmd {
	return tea.Tick(scrollStepInterval, func(time.Time) tea.Msg {
		return scrollStepMsg{Target: target}
	})
}

func openImageCmd(open func(string) error, url string) tea.Cmd {
	return func() tea.Msg {
		return imageOpenedMsg{URL: url, Error: open(url)}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
