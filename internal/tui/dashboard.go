package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatstat/internal/render"
	"github.com/Zuo-Peng/chatstat/internal/report"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

const sidebarWidth = 24

type reportBuiltMsg struct {
	key    string
	report *report.Report
	err    error
}

type dashboard struct {
	ctx     context.Context
	table   *transcript.Table
	builder report.Builder
	opts    report.Options

	senders []string
	cursor  int
	offset  int

	reports map[string]*report.Report
	shown   string
	view    viewport.Model

	width    int
	height   int
	ready    bool
	quitting bool
	notice   string
}

func newDashboard(ctx context.Context, t *transcript.Table, b report.Builder, opts report.Options) dashboard {
	return dashboard{
		ctx:     ctx,
		table:   t,
		builder: b,
		opts:    opts,
		senders: t.SelectionList(),
		reports: make(map[string]*report.Report),
		view:    viewport.New(0, 0),
	}
}

// RunDashboard shows the sender picker next to the report for the selected
// sender. Reports are built on demand and cached for the session.
func RunDashboard(ctx context.Context, t *transcript.Table, b report.Builder, opts report.Options) error {
	p := tea.NewProgram(newDashboard(ctx, t, b, opts), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (d dashboard) Init() tea.Cmd {
	return d.buildCurrent()
}

func (d dashboard) selected() string {
	if d.cursor < len(d.senders) {
		return d.senders[d.cursor]
	}
	return transcript.Overall
}

func (d dashboard) cacheKey(sender string) string {
	if d.opts.NoSentiment {
		return sender + "\x00-"
	}
	return sender + "\x00+"
}

func (d dashboard) buildCurrent() tea.Cmd {
	sender := d.selected()
	k := d.cacheKey(sender)
	if _, ok := d.reports[k]; ok {
		return func() tea.Msg { return reportBuiltMsg{key: k, report: d.reports[k]} }
	}
	ctx, t, b, opts := d.ctx, d.table, d.builder, d.opts
	return func() tea.Msg {
		r, err := b.Build(ctx, t, sender, opts)
		return reportBuiltMsg{key: k, report: r, err: err}
	}
}

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.ready = true
		d.view = newViewport(d.reportWidth(), d.panelHeight())
		d.shown = ""
		return d, d.buildCurrent()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, dashKeys.Quit):
			d.quitting = true
			return d, tea.Quit

		case key.Matches(msg, dashKeys.Up):
			if d.cursor > 0 {
				d.cursor--
				d.adjustScroll()
				return d, d.buildCurrent()
			}

		case key.Matches(msg, dashKeys.Down):
			if d.cursor < len(d.senders)-1 {
				d.cursor++
				d.adjustScroll()
				return d, d.buildCurrent()
			}

		case key.Matches(msg, dashKeys.Sentiment):
			if d.builder.Classifier == nil {
				d.notice = "sentiment not configured"
				return d, nil
			}
			d.opts.NoSentiment = !d.opts.NoSentiment
			return d, d.buildCurrent()

		case key.Matches(msg, dashKeys.Copy):
			return d, d.copyReport()

		case key.Matches(msg, dashKeys.PageUp):
			d.view.LineUp(d.panelHeight())
		case key.Matches(msg, dashKeys.PageDown):
			d.view.LineDown(d.panelHeight())
		}
		return d, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		d.view, cmd = d.view.Update(msg)
		return d, cmd

	case reportBuiltMsg:
		if msg.err != nil {
			d.view.SetContent("Error: " + msg.err.Error())
			d.shown = ""
			return d, nil
		}
		d.reports[msg.key] = msg.report
		if msg.key != d.cacheKey(d.selected()) || msg.key == d.shown {
			return d, nil
		}
		var b strings.Builder
		if err := render.Report(&b, msg.report, render.ReportOptions{Color: true, Width: d.reportWidth()}); err != nil {
			d.view.SetContent("Error: " + err.Error())
			return d, nil
		}
		d.view.SetContent(b.String())
		d.view.GotoTop()
		d.shown = msg.key
		return d, nil

	case noticeMsg:
		d.notice = string(msg)
		return d, nil
	}
	return d, nil
}

func (d dashboard) copyReport() tea.Cmd {
	r, ok := d.reports[d.cacheKey(d.selected())]
	if !ok {
		return nil
	}
	return func() tea.Msg {
		var b strings.Builder
		if err := render.Report(&b, r, render.ReportOptions{Width: 80}); err != nil {
			return noticeMsg("copy failed: " + err.Error())
		}
		if err := clipboard.WriteAll(b.String()); err != nil {
			return noticeMsg("clipboard unavailable: " + err.Error())
		}
		return noticeMsg("copied report for " + r.Sender)
	}
}

func (d *dashboard) adjustScroll() {
	h := d.panelHeight()
	if d.cursor < d.offset {
		d.offset = d.cursor
	}
	if d.cursor >= d.offset+h {
		d.offset = d.cursor - h + 1
	}
}

func (d dashboard) View() string {
	if d.quitting || !d.ready {
		return ""
	}
	panelH := d.panelHeight()

	title := d.opts.Title
	if title == "" {
		title = "chat"
	}
	header := styleTitle.Render(fmt.Sprintf(" %s  %d messages", title, d.table.Len()))

	sidebar := stylePanelBorder.
		Width(sidebarWidth).
		Height(panelH).
		Render(d.renderSenders(panelH))

	d.view.Width = d.reportWidth()
	d.view.Height = panelH
	main := styleActiveBorder.
		Width(d.reportWidth()).
		Height(panelH).
		Render(d.view.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	return lipgloss.JoinVertical(lipgloss.Left, header, panels, d.statusBar())
}

func (d dashboard) renderSenders(height int) string {
	var lines []string
	for i := d.offset; i < len(d.senders) && len(lines) < height; i++ {
		name := d.senders[i]
		if runewidth.StringWidth(name) > sidebarWidth-2 {
			name = runewidth.Truncate(name, sidebarWidth-2, "~")
		}
		if i == d.cursor {
			lines = append(lines, styleListSelected.Render("> "+name))
			continue
		}
		if d.senders[i] == transcript.Overall {
			lines = append(lines, "  "+styleListNormal.Render(name))
			continue
		}
		lines = append(lines, "  "+senderStyle(d.senders[i]).Render(name))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (d dashboard) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d senders", len(d.senders)-1),
		"up/dn select",
		"pgup/pgdn scroll",
		"y copy",
	}
	if d.builder.Classifier != nil {
		state := "on"
		if d.opts.NoSentiment {
			state = "off"
		}
		parts = append(parts, "s sentiment "+state)
	}
	parts = append(parts, "q quit")
	if d.notice != "" {
		parts = append(parts, d.notice)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (d dashboard) reportWidth() int {
	if d.width <= 0 {
		return 80
	}
	return max(d.width-sidebarWidth-6, 30)
}

func (d dashboard) panelHeight() int {
	if d.height <= 0 {
		return 20
	}
	// header (1) + status bar (1) + borders (2)
	return max(d.height-4, 5)
}
