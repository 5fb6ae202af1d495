package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatstat/internal/index"
	"github.com/Zuo-Peng/chatstat/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type browseMode int

const (
	// modeSearch runs FTS on every query; an empty query shows nothing.
	modeSearch browseMode = iota
	// modeList shows the newest messages until the user types.
	modeList
)

type searchResultMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

type noticeMsg string

type model struct {
	db    *index.DB
	opts  search.Options
	mode  browseMode
	query string

	results    []search.Result
	cursor     int
	listOffset int

	input      textinput.Model
	preview    viewport.Model
	previewKey string // transcriptKey:msgID currently shown

	width, height int
	ready         bool
	quitting      bool
	picked        *search.Result
	notice        string
}

func initialModel(db *index.DB, query string, opts search.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search messages..."
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		db:      db,
		opts:    opts,
		query:   query,
		input:   ti,
		preview: viewport.New(0, 0),
	}
}

// Run starts the search TUI and blocks until it exits. It returns the
// result the user picked with Enter, or nil.
func Run(db *index.DB, query string, opts search.Options) (*search.Result, error) {
	return run(initialModel(db, query, opts))
}

// RunList starts the TUI in browse mode: newest messages first, narrowed by
// full-text search as the user types.
func RunList(db *index.DB, opts search.Options) (*search.Result, error) {
	m := initialModel(db, "", opts)
	m.mode = modeList
	m.input.Placeholder = "Filter..."
	return run(m)
}

func run(m model) (*search.Result, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	return final.(model).picked, nil
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList || m.query != "" {
		cmds = append(cmds, m.fetch(m.query))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.fetch(msg.query)

	case searchResultMsg:
		return m.applyResults(msg)

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case previewRenderedMsg:
		return m.applyPreview(msg), nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Enter):
		if r, ok := m.current(); ok {
			m.picked = &r
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, keys.Copy):
		if r, ok := m.current(); ok {
			return m, copyMessage(m.db, r)
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		return m.moveCursor(m.cursor - 1)

	case key.Matches(msg, keys.Down):
		return m.moveCursor(m.cursor + 1)

	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(m.panelHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PreviewDn):
		m.preview.LineDown(m.panelHeight() / 2)
		return m, nil

	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(m.panelHeight())
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(m.panelHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		m.notice = ""
		return m, tea.Batch(cmd, debounce(q))
	}
	return m, cmd
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}

	region, item := m.hitTest(msg.X, msg.Y)
	switch region {
	case regionList:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.listOffset = max(m.listOffset-1, 0)
		case msg.Button == tea.MouseButtonWheelDown:
			maxOffset := max(len(m.results)-m.panelHeight()/linesPerItem, 0)
			m.listOffset = min(m.listOffset+1, maxOffset)
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if item != m.cursor {
				return m.moveCursor(item)
			}
		}
		return m, nil

	case regionPreview:
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// moveCursor selects result i if it exists and loads its preview.
func (m model) moveCursor(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.results) {
		return m, nil
	}
	m.cursor = i
	m.adjustListScroll(m.panelHeight())
	return m, m.loadCurrentPreview()
}

func (m model) applyResults(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		return m, nil // stale
	}
	m.cursor = 0
	m.listOffset = 0
	m.previewKey = ""
	if msg.err != nil {
		m.results = nil
		m.preview.SetContent("Error: " + msg.err.Error())
		return m, nil
	}
	m.results = msg.results
	if len(m.results) == 0 {
		m.preview.SetContent("")
		return m, nil
	}
	return m, m.loadCurrentPreview()
}

func (m model) applyPreview(msg previewRenderedMsg) model {
	k := previewCacheKey(msg.transcriptKey, msg.msgID)
	if k == m.previewKey {
		return m
	}
	if r, ok := m.current(); ok && previewCacheKey(r.TranscriptKey, r.MsgID) != k {
		return m // cursor moved on
	}
	if msg.err != nil {
		m.preview.SetContent("Preview error: " + msg.err.Error())
	} else {
		m.preview.SetContent(msg.content)
		if msg.hitLine > 0 {
			m.preview.SetYOffset(msg.hitLine)
		} else {
			m.preview.GotoTop()
		}
	}
	m.previewKey = k
	return m
}

func (m model) current() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}
	listW, previewW, panelH := m.listWidth(), m.previewWidth(), m.panelHeight()

	list := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	preview := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, list, preview)
	return lipgloss.JoinVertical(lipgloss.Left, m.input.View(), panels, m.statusBar())
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row + status bar + borders
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	top := 2 // input row + top border
	if y < top || y > top+m.panelHeight()-1 {
		return regionNone, -1
	}
	lw := m.listWidth()
	switch {
	case x >= 1 && x <= lw:
		return regionList, m.listOffset + (y-top)/linesPerItem
	case x > lw+2:
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d messages", len(m.results)),
		"up/dn navigate",
		"C-u/C-d preview",
		"C-y copy",
		"Enter open",
		"Esc quit",
	}
	if m.notice != "" {
		parts = append(parts, m.notice)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// fetch runs the query for the current mode off the UI goroutine.
func (m model) fetch(query string) tea.Cmd {
	db, opts, mode := m.db, m.opts, m.mode
	opts.Query = query
	return func() tea.Msg {
		var (
			results []search.Result
			err     error
		)
		switch {
		case query != "":
			results, err = search.Search(db, opts)
		case mode == modeList:
			results, err = search.ListRecent(db, opts)
		}
		return searchResultMsg{query: query, results: results, err: err}
	}
}

func debounce(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	r, ok := m.current()
	if !ok || previewCacheKey(r.TranscriptKey, r.MsgID) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.db, r, m.query, m.previewWidth())
}

func previewCacheKey(transcriptKey string, msgID int) string {
	return fmt.Sprintf("%s:%d", transcriptKey, msgID)
}

// copyMessage puts the full body of the selected message on the clipboard.
func copyMessage(db *index.DB, r search.Result) tea.Cmd {
	return func() tea.Msg {
		m, err := db.GetMessage(r.TranscriptKey, r.MsgID)
		if err != nil {
			return noticeMsg("copy failed: " + err.Error())
		}
		if err := clipboard.WriteAll(strings.TrimRight(m.Body, "\n")); err != nil {
			return noticeMsg("clipboard unavailable: " + err.Error())
		}
		return noticeMsg("copied message from " + m.Sender)
	}
}
