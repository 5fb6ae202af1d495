package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/report"
	"github.com/Zuo-Peng/chatstat/internal/search"
	"github.com/Zuo-Peng/chatstat/internal/stats"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

const chat = "1/1/24, 09:00 - Alice created group \"Trip\"\n" +
	"1/1/24, 09:05 - Alice: Hello there\n" +
	"1/1/24, 23:10 - Bob: see you tonight\n" +
	"2/1/24, 10:00 - Bob: ok\n"

func TestShortDate(t *testing.T) {
	assert.Equal(t, "24-01-27", shortDate("2024-01-27T09:00:00Z"))
	assert.Equal(t, "--------", shortDate(""))
	assert.Equal(t, "odd", shortDate("odd"))
}

func TestFormatResultLine(t *testing.T) {
	r := search.Result{
		TranscriptKey: "trip-1234abcd",
		MsgID:         3,
		Title:         "Trip",
		Ts:            "2024-01-02T10:00:00Z",
		Sender:        "Bob",
		Snippet:       "see >>>you<<< tonight\nbye",
	}
	lines := formatResultLine(r, 60, true)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "24-01-02")
	assert.Contains(t, lines[0], "Bob")
	assert.Contains(t, lines[0], "Trip")
	assert.Contains(t, lines[0], "> ")
	assert.Contains(t, lines[1], "see you tonight bye")
	assert.NotContains(t, lines[1], ">>>")

	notice := formatResultLine(search.Result{Sender: parse.GroupNotification, Snippet: "x"}, 60, false)
	assert.True(t, strings.HasPrefix(notice[0], "  "))
	assert.NotContains(t, notice[0], parse.GroupNotification)
}

func TestSearchModel_IgnoresStaleResults(t *testing.T) {
	m := initialModel(nil, "tonight", search.Options{})

	next, _ := m.Update(searchResultMsg{query: "other", results: []search.Result{{MsgID: 1}}})
	assert.Empty(t, next.(model).results)

	next, cmd := m.Update(searchResultMsg{query: "tonight", results: []search.Result{{TranscriptKey: "k", MsgID: 2}}})
	got := next.(model)
	require.Len(t, got.results, 1)
	assert.Equal(t, 0, got.cursor)
	assert.NotNil(t, cmd)
}

func TestSearchModel_EnterSelects(t *testing.T) {
	m := initialModel(nil, "x", search.Options{})
	m.results = []search.Result{{TranscriptKey: "a", MsgID: 1}, {TranscriptKey: "b", MsgID: 7}}
	m.cursor = 1

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := next.(model)
	require.NotNil(t, got.picked)
	assert.Equal(t, 7, got.picked.MsgID)
	assert.True(t, got.quitting)
	assert.NotNil(t, cmd)
}

func TestAdjustListScroll(t *testing.T) {
	m := model{cursor: 9}
	m.adjustListScroll(10) // 5 visible items
	assert.Equal(t, 5, m.listOffset)

	m.cursor = 2
	m.adjustListScroll(10)
	assert.Equal(t, 2, m.listOffset)
}

func newTestDashboard() dashboard {
	table := transcript.Preprocess(chat)
	return newDashboard(context.Background(), table, report.Builder{Engine: stats.New(nil, nil)}, report.Options{Title: "Trip"})
}

func TestDashboard_BuildsSelectedReport(t *testing.T) {
	d := newTestDashboard()
	assert.Equal(t, []string{transcript.Overall, "Alice", "Bob"}, d.senders)

	next, cmd := d.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	require.NotNil(t, cmd)
	built, ok := cmd().(reportBuiltMsg)
	require.True(t, ok)
	require.NoError(t, built.err)
	assert.Equal(t, transcript.Overall, built.report.Sender)

	next, _ = next.Update(built)
	view := next.View()
	assert.Contains(t, view, "Top Statistics")
	assert.Contains(t, view, "Trip")

	next, cmd = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, next.(dashboard).cursor)
	require.NotNil(t, cmd)
	built = cmd().(reportBuiltMsg)
	assert.Equal(t, "Alice", built.report.Sender)
	assert.Equal(t, 1, built.report.Summary.Messages)
}

func TestDashboard_CachesReports(t *testing.T) {
	d := newTestDashboard()
	next, cmd := d.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	next, _ = next.Update(cmd())

	dd := next.(dashboard)
	require.Len(t, dd.reports, 1)
	cached := dd.reports[dd.cacheKey(transcript.Overall)]

	again := dd.buildCurrent()().(reportBuiltMsg)
	assert.Same(t, cached, again.report)
}

func TestDashboard_SentimentToggleNeedsClassifier(t *testing.T) {
	d := newTestDashboard()
	next, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.Nil(t, cmd)
	assert.Equal(t, "sentiment not configured", next.(dashboard).notice)
	assert.False(t, next.(dashboard).opts.NoSentiment)
}

func TestDashboard_StaleReportNotShown(t *testing.T) {
	d := newTestDashboard()
	next, _ := d.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	r := &report.Report{Sender: "Bob"}
	next, _ = next.Update(reportBuiltMsg{key: d.cacheKey("Bob"), report: r})

	dd := next.(dashboard)
	assert.Empty(t, dd.shown)
	assert.Same(t, r, dd.reports[d.cacheKey("Bob")])
}

func TestSearchModel_QueryChangeClearsNotice(t *testing.T) {
	m := initialModel(nil, "", search.Options{})
	m.notice = "copied"

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	got := next.(model)
	assert.Equal(t, "h", got.query)
	assert.Empty(t, got.notice)
	assert.NotNil(t, cmd)
}

func TestSearchModel_HitTest(t *testing.T) {
	m := initialModel(nil, "", search.Options{})
	m.width, m.height = 100, 30
	m.listOffset = 3

	region, item := m.hitTest(5, 2)
	assert.Equal(t, regionList, region)
	assert.Equal(t, 3, item)

	region, item = m.hitTest(5, 7)
	assert.Equal(t, regionList, region)
	assert.Equal(t, 5, item)

	region, _ = m.hitTest(80, 10)
	assert.Equal(t, regionPreview, region)

	region, _ = m.hitTest(5, 0)
	assert.Equal(t, regionNone, region)
}
