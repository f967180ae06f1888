package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/pixgrid/internal/browser"
	"github.com/strrl/pixgrid/internal/gallery"
	"github.com/strrl/pixgrid/pkg/models"
)

type focusArea int

const (
	searchFocus focusArea = iota
	gridFocus
)

// header, search bar and footer
const chromeLines = 3

// Options configures the gallery TUI
type Options struct {
	InitialQuery  string
	CardWidth     int
	ToastDuration time.Duration
	ScrollDelay   time.Duration
	Timeout       time.Duration
	Recorder      gallery.Recorder
	Logger        *slog.Logger
	Opener        func(url string) error
}

type activeRequest struct {
	req    gallery.Request
	cancel context.CancelFunc
}

// noticeBuffer holds controller notices until Update turns them into toasts
type noticeBuffer struct {
	pending []gallery.Notice
}

func (b *noticeBuffer) Notify(n gallery.Notice) {
	b.pending = append(b.pending, n)
}

func (b *noticeBuffer) drain() []gallery.Notice {
	out := b.pending
	b.pending = nil
	return out
}

type model struct {
	ctx            context.Context
	cancel         context.CancelFunc
	controller     *gallery.Controller[models.Image]
	notices        *noticeBuffer
	toaster        *Toaster
	indicator      *LoadingIndicator
	input          textinput.Model
	viewport       viewport.Model
	activeRequests map[string]activeRequest
	focus          focusArea
	cursor         int
	spinning       bool
	opts           Options
	logger         *slog.Logger
	ready          bool
	width          int
	height         int
}

func initialModel(fetcher gallery.Fetcher[models.Image], opts Options) model {
	if opts.CardWidth <= 0 {
		opts.CardWidth = 36
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = 4 * time.Second
	}
	if opts.Opener == nil {
		opts.Opener = browser.Open
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctrlOpts := []gallery.Option{
		gallery.WithLogger(logger),
		gallery.WithTimeout(opts.Timeout),
	}
	if opts.Recorder != nil {
		ctrlOpts = append(ctrlOpts, gallery.WithRecorder(opts.Recorder))
	}

	notices := &noticeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Placeholder = "Search images and photos"
	input.Prompt = "🔍 "
	input.CharLimit = 100
	input.Focus()

	return model{
		ctx:            ctx,
		cancel:         cancel,
		controller:     gallery.NewController[models.Image](fetcher, notices, ctrlOpts...),
		notices:        notices,
		toaster:        NewToaster(opts.ToastDuration),
		indicator:      NewLoadingIndicator("Loading..."),
		input:          input,
		activeRequests: make(map[string]activeRequest),
		focus:          searchFocus,
		opts:           opts,
		logger:         logger,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if strings.TrimSpace(m.opts.InitialQuery) != "" {
		cmds = append(cmds, submitQueryCmd(m.opts.InitialQuery))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, 1)
			m.ready = true
		}
		m.input.Width = max(10, msg.Width-6)
		m.layout()
		m.refreshContent()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.shutdown()
			return m, tea.Quit
		}
		if m.focus == searchFocus {
			return m.updateSearch(msg)
		}
		return m.updateGrid(msg)

	case submitQueryMsg:
		m.input.SetValue(msg.Query)
		cmd := m.submit(msg.Query)
		return m, cmd

	case FetchCompletedMsg:
		cmd := m.resolve(msg.Result)
		return m, cmd

	case scrollMsg:
		if msg.Generation != m.controller.Session().Generation {
			return m, nil
		}
		cmd := m.scrollStep(rowTop(msg.Anchor, m.columns()))
		return m, cmd

	case scrollStepMsg:
		cmd := m.scrollStep(msg.Target)
		return m, cmd

	case toastExpiredMsg:
		m.toaster.Dismiss(msg.ID)
		m.layout()
		return m, nil

	case imageOpenedMsg:
		if msg.Error != nil {
			m.logger.Warn("failed to open image", "url", msg.URL, "error", msg.Error)
			cmd := m.toast(gallery.Notice{Level: gallery.LevelError, Text: fmt.Sprintf("Could not open image: %v", msg.Error)})
			return m, cmd
		}
		cmd := m.toast(gallery.Notice{Level: gallery.LevelPlain, Text: "Opened " + msg.URL})
		return m, cmd

	case TickMsg:
		if m.controller.Session().Status != gallery.StatusLoading {
			m.spinning = false
			return m, nil
		}
		m.indicator.Tick()
		m.refreshContent()
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		cmd := m.submit(m.input.Value())
		return m, cmd
	case tea.KeyEsc, tea.KeyTab:
		m.setFocus(gridFocus)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.shutdown()
		return m, tea.Quit
	case "/", "tab":
		m.setFocus(searchFocus)
		return m, textinput.Blink
	case "left", "h":
		m.moveCursor(-1)
	case "right", "l":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-m.columns())
	case "down", "j":
		m.moveCursor(m.columns())
	case "pgdown", " ":
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
	case "pgup":
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
	case "m":
		cmd := m.loadMore()
		return m, cmd
	case "enter", "o":
		cmd := m.openSelected()
		return m, cmd
	}
	return m, nil
}

// submit hands a raw query to the controller and starts the fetch it issues
func (m *model) submit(raw string) tea.Cmd {
	req, ok := m.controller.SubmitQuery(raw)
	cmds := m.flushNotices()
	if ok {
		m.cursor = 0
		m.viewport.SetYOffset(0)
		m.setFocus(gridFocus)
		cmds = append(cmds, m.startFetch(req))
	}
	m.refreshContent()
	return tea.Batch(cmds...)
}

// loadMore is bound to the load-more key. It does nothing before the first
// search or while a page is loading, when no button is on screen.
func (m *model) loadMore() tea.Cmd {
	s := m.controller.Session()
	if s.Query == "" || s.Status == gallery.StatusLoading {
		return nil
	}

	req, ok := m.controller.LoadMore()
	cmds := m.flushNotices()
	if ok {
		cmds = append(cmds, m.startFetch(req))
	}
	m.refreshContent()
	return tea.Batch(cmds...)
}

func (m *model) startFetch(req gallery.Request) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.activeRequests[req.ID] = activeRequest{req: req, cancel: cancel}
	m.indicator.SetMessage(fmt.Sprintf("Searching %q (page %d)...", req.Query, req.Page))

	cmds := []tea.Cmd{fetchCmd(ctx, m.controller, req)}
	if !m.spinning {
		m.spinning = true
		cmds = append(cmds, tickCmd())
	}
	return tea.Batch(cmds...)
}

func (m *model) resolve(res gallery.Result[models.Image]) tea.Cmd {
	if active, ok := m.activeRequests[res.Request.ID]; ok {
		active.cancel()
		delete(m.activeRequests, res.Request.ID)
	}

	applied := m.controller.Resolve(res)
	cmds := m.flushNotices()

	if applied && res.Err == nil && res.Request.Page > 1 {
		s := m.controller.Session()
		anchor := len(s.Results) - len(res.Page.Hits)
		cmds = append(cmds, scrollAfterCmd(m.opts.ScrollDelay, anchor, s.Generation))
	}

	m.clampCursor()
	m.refreshContent()
	return tea.Batch(cmds...)
}

// scrollStep moves the viewport part of the way to target and schedules the
// next step until target is reached or the viewport cannot move further.
func (m *model) scrollStep(target int) tea.Cmd {
	diff := target - m.viewport.YOffset
	if diff == 0 {
		return nil
	}
	step := diff / 3
	if step == 0 {
		step = 1
		if diff < 0 {
			step = -1
		}
	}

	before := m.viewport.YOffset
	m.viewport.SetYOffset(before + step)
	if m.viewport.YOffset == before {
		return nil
	}
	return scrollStepCmd(target)
}

func (m *model) openSelected() tea.Cmd {
	results := m.controller.Session().Results
	if m.cursor < 0 || m.cursor >= len(results) {
		return nil
	}
	img := results[m.cursor]
	url := img.LargeImageURL
	if url == "" {
		url = img.PageURL
	}
	if url == "" {
		return nil
	}
	return openImageCmd(m.opts.Opener, url)
}

func (m *model) toast(n gallery.Notice) tea.Cmd {
	cmd := m.toaster.Push(n)
	m.layout()
	return cmd
}

func (m *model) flushNotices() []tea.Cmd {
	var cmds []tea.Cmd
	for _, n := range m.notices.drain() {
		cmds = append(cmds, m.toast(n))
	}
	return cmds
}

func (m *model) setFocus(f focusArea) {
	m.focus = f
	if f == searchFocus {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.refreshContent()
}

func (m *model) columns() int {
	return gridColumns(m.width, m.opts.CardWidth)
}

func (m *model) moveCursor(delta int) {
	n := len(m.controller.Session().Results)
	if n == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= n {
		return
	}
	m.cursor = next

	top := rowTop(m.cursor, m.columns())
	if top < m.viewport.YOffset {
		m.viewport.SetYOffset(top)
	} else if bottom := top + cardHeight; bottom > m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
	m.refreshContent()
}

func (m *model) clampCursor() {
	n := len(m.controller.Session().Results)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

// layout sizes the viewport to whatever the chrome and toasts leave over
func (m *model) layout() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(1, m.height-chromeLines-len(m.toaster.Toasts()))
}

func (m *model) refreshContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
}

// shutdown cancels every fetch still in flight
func (m *model) shutdown() {
	for id, active := range m.activeRequests {
		active.cancel()
		delete(m.activeRequests, id)
	}
	m.cancel()
}

func (m model) renderContent() string {
	s := m.controller.Session()
	var b strings.Builder

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	switch {
	case s.Query == "":
		b.WriteString(hintStyle.Render("Type a search query and press enter."))
	case len(s.Results) > 0:
		selected := -1
		if m.focus == gridFocus {
			selected = m.cursor
		}
		b.WriteString(renderGrid(s.Results, m.width, m.opts.CardWidth, selected))
	}

	switch {
	case s.Status == gallery.StatusLoading:
		b.WriteString("\n\n" + m.indicator.View())
	case s.Status == gallery.StatusError:
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString("\n\n" + errorStyle.Render("Something went wrong. Please try again later."))
	case s.CanLoadMore():
		buttonStyle := lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("63"))
		button := buttonStyle.Render("Load more") + hintStyle.Render("  press m")
		b.WriteString("\n\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, button))
	}

	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	parts := []string{m.renderHeader(), m.renderSearchBar()}
	if toasts := m.toaster.View(m.width); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, m.viewport.View(), m.renderFooter())
	return strings.Join(parts, "\n")
}

func (m model) renderHeader() string {
	title := "Pixgrid - Image Search"
	if q := m.controller.Session().Query; q != "" {
		title = fmt.Sprintf("Pixgrid - %q", q)
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("63"))

	return style.Render(title)
}

func (m model) renderSearchBar() string {
	return m.input.View()
}

func (m model) renderFooter() string {
	s := m.controller.Session()
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var status string
	if s.TotalAvailable > 0 {
		progress := float64(len(s.Results)) / float64(s.TotalAvailable) * 100
		status = fmt.Sprintf("%d of %d images %s", len(s.Results), s.TotalAvailable, renderProgressBar(progress, 20))
	}

	info := "enter: search • esc: results • ctrl+c: quit"
	if m.focus == gridFocus {
		info = "←↑↓→: select • enter: open • m: load more • /: search • q: quit"
	}

	if status == "" {
		return style.Render(info)
	}
	return status + style.Render("  "+info)
}

// Run starts the gallery TUI and blocks until the user quits
func Run(fetcher gallery.Fetcher[models.Image], opts Options) error {
	m := initialModel(fetcher, opts)
	defer m.shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
