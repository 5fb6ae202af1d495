package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/report"
	"github.com/Zuo-Peng/chatstat/internal/stats"
)

type ReportOptions struct {
	Color bool
	// Width bounds bar length; 0 means 80 columns.
	Width int
}

// heatShades maps a cell's share of the peak onto a character.
const heatShades = " .:-=+*#%@"

const labelWidth = 16

type reportWriter struct {
	b     strings.Builder
	color bool
	width int
}

func (w *reportWriter) style(code, s string) string {
	if !w.color {
		return s
	}
	return code + s + colorReset
}

func (w *reportWriter) heading(s string) {
	w.b.WriteString("\n")
	w.b.WriteString(w.style(colorBold, s))
	w.b.WriteString("\n")
}

func (w *reportWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

// label pads or truncates s to n display columns.
func label(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > n {
		s = runewidth.Truncate(s, n, "~")
	}
	return runewidth.FillRight(s, n)
}

func bar(n, peak, width int) string {
	if peak <= 0 || n <= 0 {
		return ""
	}
	l := n * width / peak
	if l == 0 {
		l = 1
	}
	return strings.Repeat("#", l)
}

func (w *reportWriter) barWidth() int {
	return max(w.width-labelWidth-12, 10)
}

func (w *reportWriter) counts(rows []stats.LabelCount) {
	peak := 0
	for _, r := range rows {
		peak = max(peak, r.Count)
	}
	for _, r := range rows {
		w.line("  %s %8s %s", label(r.Label, labelWidth), humanize.Comma(int64(r.Count)), bar(r.Count, peak, w.barWidth()))
	}
}

// Report writes r as plain text, optionally with ANSI colors.
func Report(out io.Writer, r *report.Report, opts ReportOptions) error {
	w := &reportWriter{color: opts.Color, width: opts.Width}
	if w.width <= 0 {
		w.width = 80
	}

	title := r.Sender
	if r.Title != "" {
		title = r.Title + " / " + r.Sender
	}
	w.line("%s", w.style(colorBold, "== "+title+" =="))

	w.heading("Top Statistics")
	w.line("  %s %s", label("Messages", labelWidth), humanize.Comma(int64(r.Summary.Messages)))
	w.line("  %s %s", label("Words", labelWidth), humanize.Comma(int64(r.Summary.Words)))
	w.line("  %s %s", label("Media shared", labelWidth), humanize.Comma(int64(r.Summary.Media)))
	w.line("  %s %s", label("Links shared", labelWidth), humanize.Comma(int64(r.Summary.Links)))

	if r.Activity != nil && len(r.Activity.Shares) > 0 {
		w.heading("Most Active Senders")
		w.counts(r.Activity.Top)
		w.line("")
		for _, s := range r.Activity.Shares {
			name := s.Sender
			if name == parse.GroupNotification {
				name = "(notifications)"
			}
			w.line("  %s %6.2f%%", label(name, labelWidth), s.Percent)
		}
	}

	if len(r.Monthly) > 0 {
		w.heading("Monthly Timeline")
		rows := make([]stats.LabelCount, 0, len(r.Monthly))
		for _, m := range r.Monthly {
			rows = append(rows, stats.LabelCount{Label: m.Label, Count: m.Count})
		}
		w.counts(rows)
	}

	if len(r.Daily) > 0 {
		w.heading("Daily Timeline")
		busiest := r.Daily[0]
		for _, d := range r.Daily {
			if d.Count > busiest.Count {
				busiest = d
			}
		}
		first, last := r.Daily[0].Date, r.Daily[len(r.Daily)-1].Date
		w.line("  %s days active between %s and %s",
			humanize.Comma(int64(len(r.Daily))), first.Format("2006-01-02"), last.Format("2006-01-02"))
		w.line("  busiest day %s with %s messages", busiest.Date.Format("Mon 2006-01-02"), humanize.Comma(int64(busiest.Count)))
	}

	if len(r.Weekdays) > 0 {
		w.heading("Most Busy Days")
		w.counts(r.Weekdays)
	}
	if len(r.Months) > 0 {
		w.heading("Most Busy Months")
		w.counts(r.Months)
	}

	if r.Heatmap.Total() > 0 {
		w.heading("Weekly Activity Map")
		w.heatmap(r.Heatmap)
	}

	if len(r.Emoji) > 0 {
		w.heading("Emoji")
		w.counts(r.Emoji)
	}

	if r.Sentiment != nil {
		w.heading("Sentiment")
		switch {
		case r.Sentiment.Error != "":
			w.line("  unavailable: %s", r.Sentiment.Error)
		case r.Sentiment.Percentages == nil:
			w.line("  No valid messages for sentiment analysis.")
		default:
			p := r.Sentiment.Percentages
			c := r.Sentiment.Counts
			w.line("  %s %6.2f%%  (%s)", label("Positive", labelWidth), p.Positive, humanize.Comma(int64(c.Positive)))
			w.line("  %s %6.2f%%  (%s)", label("Negative", labelWidth), p.Negative, humanize.Comma(int64(c.Negative)))
			w.line("  %s %6.2f%%  (%s)", label("Neutral", labelWidth), p.Neutral, humanize.Comma(int64(c.Neutral)))
		}
	}

	if len(r.Cloud.TopTokens) > 0 {
		w.heading("Most Common Words")
		w.counts(r.Cloud.TopTokens)
	}

	_, err := io.WriteString(out, w.b.String())
	return err
}

func (w *reportWriter) heatmap(h stats.Heatmap) {
	_, _, peak, _ := h.Peak()

	var hdr strings.Builder
	hdr.WriteString("       ")
	for hour := 0; hour < 24; hour += 3 {
		fmt.Fprintf(&hdr, "%-6s", fmt.Sprintf("%02d", hour))
	}
	w.line("%s", strings.TrimRight(hdr.String(), " "))

	for i, day := range h.Weekdays {
		var row strings.Builder
		for _, n := range h.Counts[i] {
			idx := 0
			if n > 0 {
				idx = max(1, n*(len(heatShades)-1)/peak)
			}
			row.WriteByte(heatShades[idx])
			row.WriteByte(heatShades[idx])
		}
		w.line("  %s  %s", day[:3], row.String())
	}
	wd, bucket, n, _ := h.Peak()
	w.line("  peak: %s %s (%s messages)", wd, bucket, humanize.Comma(int64(n)))
}
