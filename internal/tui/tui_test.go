package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strrl/pixgrid/internal/gallery"
	"github.com/strrl/pixgrid/pkg/models"
)

type stubFetcher struct {
	pages map[string]gallery.Page[models.Image]
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context, query string, page int) (gallery.Page[models.Image], error) {
	if f.err != nil {
		return gallery.Page[models.Image]{}, f.err
	}
	return f.pages[fmt.Sprintf("%s/%d", query, page)], nil
}

func images(from, to int) []models.Image {
	var out []models.Image
	for i := from; i <= to; i++ {
		out = append(out, models.Image{
			ID:            i,
			Tags:          fmt.Sprintf("tag%d", i),
			User:          "someone",
			LargeImageURL: fmt.Sprintf("https://cdn.example/%d.jpg", i),
		})
	}
	return out
}

func newTestModel(t *testing.T, f *stubFetcher) model {
	t.Helper()
	m := initialModel(f, Options{CardWidth: 20, ScrollDelay: time.Millisecond})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 84, Height: 20})
	return updated.(model)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(model), cmd
}

// pendingRequest returns the single in-flight request
func pendingRequest(t *testing.T, m model) gallery.Request {
	t.Helper()
	require.Len(t, m.activeRequests, 1)
	for _, active := range m.activeRequests {
		return active.req
	}
	return gallery.Request{}
}

// complete runs the in-flight request and feeds the result back
func complete(t *testing.T, m model) (model, tea.Cmd) {
	t.Helper()
	req := pendingRequest(t, m)
	return update(t, m, FetchCompletedMsg{Result: m.controller.Fetch(context.Background(), req)})
}

func typeQuery(t *testing.T, m model, q string) (model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(q)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModelInitialization(t *testing.T) {
	m := initialModel(&stubFetcher{}, Options{})

	assert.Equal(t, 36, m.opts.CardWidth)
	assert.Equal(t, 4*time.Second, m.opts.ToastDuration)
	assert.NotNil(t, m.activeRequests)
	assert.Equal(t, searchFocus, m.focus)
	assert.True(t, m.input.Focused())
	assert.Equal(t, gallery.StatusIdle, m.controller.Session().Status)
	assert.Equal(t, "\n  Initializing...", m.View())
}

func TestViewportInitialization(t *testing.T) {
	m := newTestModel(t, &stubFetcher{})

	assert.True(t, m.ready)
	assert.Equal(t, 84, m.width)
	assert.Equal(t, 84, m.viewport.Width)
	assert.Equal(t, 20-chromeLines, m.viewport.Height)
	assert.Contains(t, m.View(), "Type a search query")
}

func TestSubmitSearchAndLoadMore(t *testing.T) {
	f := &stubFetcher{pages: map[string]gallery.Page[models.Image]{
		"cats/1": {Hits: images(1, 4), TotalHits: 6},
		"cats/2": {Hits: images(5, 6), TotalHits: 6},
	}}
	m := newTestModel(t, f)

	m, cmd := typeQuery(t, m, "  Cats ")
	assert.NotNil(t, cmd)
	assert.Equal(t, gridFocus, m.focus)
	assert.Equal(t, gallery.StatusLoading, m.controller.Session().Status)
	assert.Equal(t, 1, pendingRequest(t, m).Page)
	assert.Contains(t, m.View(), `Searching "cats" (page 1)`)

	m, _ = complete(t, m)
	assert.Empty(t, m.activeRequests)
	assert.Len(t, m.controller.Session().Results, 4)
	assert.Contains(t, m.View(), "tag1")
	assert.Contains(t, m.View(), "Load more")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	assert.NotNil(t, cmd)
	assert.Equal(t, 2, pendingRequest(t, m).Page)
	assert.NotContains(t, m.View(), "Load more", "no button while loading")

	m, cmd = complete(t, m)
	assert.NotNil(t, cmd, "page 2 schedules a scroll")
	s := m.controller.Session()
	assert.Len(t, s.Results, 6)
	assert.True(t, s.Exhausted)
	assert.NotContains(t, m.View(), "Load more")
	assert.Contains(t, m.View(), "6 of 6 images")

	// the key still reaches the controller, which reports the end
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	assert.Empty(t, m.activeRequests)
	toasts := m.toaster.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, gallery.MsgEndOfResults, toasts[0].Notice.Text)
}

func TestRejectedQueryShowsToast(t *testing.T) {
	m := newTestModel(t, &stubFetcher{})

	m, _ = typeQuery(t, m, "   ")

	assert.Empty(t, m.activeRequests)
	assert.Equal(t, searchFocus, m.focus)
	toasts := m.toaster.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, gallery.LevelError, toasts[0].Notice.Level)
	assert.Equal(t, 20-chromeLines-1, m.viewport.Height, "toast takes a line")
	assert.Contains(t, m.View(), gallery.MsgEmptyQuery)

	m, _ = update(t, m, toastExpiredMsg{ID: toasts[0].ID})
	assert.Empty(t, m.toaster.Toasts())
	assert.Equal(t, 20-chromeLines, m.viewport.Height)
}

func TestFetchErrorShowsErrorLine(t *testing.T) {
	f := &stubFetcher{err: errors.New("network unreachable")}
	m := newTestModel(t, f)

	m, _ = typeQuery(t, m, "cats")
	m, _ = complete(t, m)

	assert.Equal(t, gallery.StatusError, m.controller.Session().Status)
	assert.Contains(t, m.View(), "Something went wrong")
	toasts := m.toaster.Toasts()
	require.Len(t, toasts, 1)
	assert.Contains(t, toasts[0].Notice.Text, "network unreachable")
}

func TestLoadMoreIgnoredBeforeFirstSearch(t *testing.T) {
	m := newTestModel(t, &stubFetcher{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, gridFocus, m.focus)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})

	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.controller.Session().Page)
	assert.Empty(t, m.toaster.Toasts())
}

func TestStaleResultIgnored(t *testing.T) {
	f := &stubFetcher{pages: map[string]gallery.Page[models.Image]{
		"cats/1": {Hits: images(1, 2), TotalHits: 2},
		"dogs/1": {Hits: images(10, 12), TotalHits: 3},
	}}
	m := newTestModel(t, f)

	m, _ = typeQuery(t, m, "cats")
	cats := pendingRequest(t, m)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m, _ = typeQuery(t, m, "dogs")
	require.Len(t, m.activeRequests, 2)

	var dogs gallery.Request
	for id, active := range m.activeRequests {
		if id != cats.ID {
			dogs = active.req
		}
	}

	ctx := context.Background()
	m, _ = update(t, m, FetchCompletedMsg{Result: m.controller.Fetch(ctx, dogs)})
	m, _ = update(t, m, FetchCompletedMsg{Result: m.controller.Fetch(ctx, cats)})

	assert.Empty(t, m.activeRequests)
	assert.Equal(t, images(10, 12), m.controller.Session().Results)
}

func TestCursorMovement(t *testing.T) {
	f := &stubFetcher{pages: map[string]gallery.Page[models.Image]{
		"cats/1": {Hits: images(1, 10), TotalHits: 10},
	}}
	m := newTestModel(t, f)
	m, _ = typeQuery(t, m, "cats")
	m, _ = complete(t, m)

	cols := m.columns()
	require.Equal(t, 4, cols)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1+cols, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1+2*cols, m.cursor)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1+2*cols, m.cursor, "no row below")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 2*cols-1, m.cursor)
}

func TestOpenSelectedImage(t *testing.T) {
	f := &stubFetcher{pages: map[string]gallery.Page[models.Image]{
		"cats/1": {Hits: images(1, 3), TotalHits: 3},
	}}
	m := newTestModel(t, f)
	var opened string
	m.opts.Opener = func(url string) error {
		opened = url
		return nil
	}
	m, _ = typeQuery(t, m, "cats")
	m, _ = complete(t, m)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'o'}})
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, "https://cdn.example/2.jpg", opened)
	assert.Equal(t, imageOpenedMsg{URL: opened}, msg)
}

func TestSmoothScrollReachesAnchor(t *testing.T) {
	f := &stubFetcher{pages: map[string]gallery.Page[models.Image]{
		"cats/1": {Hits: images(1, 12), TotalHits: 40},
		"cats/2": {Hits: images(13, 24), TotalHits: 40},
	}}
	m := newTestModel(t, f)
	m, _ = typeQuery(t, m, "cats")
	m, _ = complete(t, m)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m, _ = complete(t, m)

	gen := m.controller.Session().Generation
	m, cmd := update(t, m, scrollMsg{Anchor: 12, Generation: gen})
	target := rowTop(12, m.columns())
	require.Greater(t, target, 0)

	for i := 0; cmd != nil && i < 100; i++ {
		m, cmd = update(t, m, scrollStepMsg{Target: target})
	}
	assert.Equal(t, target, m.viewport.YOffset)

	// scrolls for a replaced query are dropped
	m.viewport.SetYOffset(0)
	_, cmd = update(t, m, scrollMsg{Anchor: 12, Generation: gen + 1})
	assert.Nil(t, cmd)
}

func TestQuitCancelsActiveRequests(t *testing.T) {
	m := newTestModel(t, &stubFetcher{})
	m, _ = typeQuery(t, m, "cats")
	req := pendingRequest(t, m)
	ctx := m.ctx

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.activeRequests)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.NotEmpty(t, req.ID)
}

func TestSpinnerAnimation(t *testing.T) {
	spinner := NewSpinner()
	initialFrame := spinner.View()

	spinner.Next()
	assert.NotEqual(t, initialFrame, spinner.View())

	for i := 0; i < 7; i++ {
		spinner.Next()
	}
	assert.Equal(t, initialFrame, spinner.View(), "full rotation")
}

func TestLoadingIndicator(t *testing.T) {
	indicator := NewLoadingIndicator("Testing...")
	view := indicator.View()
	assert.Contains(t, view, "Testing...")

	indicator.SetMessage("New message")
	assert.Contains(t, indicator.View(), "New message")

	indicator.Tick()
	assert.NotEqual(t, view, indicator.View())
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		filled   int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-10, 0},
	}

	for _, tt := range tests {
		bar := renderProgressBar(tt.progress, 10)
		assert.Equal(t, tt.filled, strings.Count(bar, "█"), "progress %.0f", tt.progress)
		assert.Equal(t, 10-tt.filled, strings.Count(bar, "░"), "progress %.0f", tt.progress)
	}
}

func TestToasterKeepsNewest(t *testing.T) {
	toaster := NewToaster(time.Second)
	for i := 0; i < 5; i++ {
		require.NotNil(t, toaster.Push(gallery.Notice{Text: fmt.Sprintf("n%d", i)}))
	}

	toasts := toaster.Toasts()
	require.Len(t, toasts, maxToasts)
	assert.Equal(t, "n2", toasts[0].Notice.Text)
	assert.Equal(t, "n4", toasts[2].Notice.Text)

	toaster.Dismiss(toasts[1].ID)
	assert.Len(t, toaster.Toasts(), 2)
	toaster.Dismiss(999)
	assert.Len(t, toaster.Toasts(), 2)
}

func TestGridColumns(t *testing.T) {
	assert.Equal(t, 1, gridColumns(10, 36))
	assert.Equal(t, 2, gridColumns(73, 36))
	assert.Equal(t, 2, gridColumns(100, 36))
	assert.Equal(t, 4, gridColumns(84, 20))
	assert.Equal(t, 1, gridColumns(84, 0))

	assert.Equal(t, 0, rowTop(3, 4))
	assert.Equal(t, cardHeight, rowTop(4, 4))
	assert.Equal(t, 2*cardHeight, rowTop(2, 1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "日本…", truncate("日本語テキスト", 3))
}
