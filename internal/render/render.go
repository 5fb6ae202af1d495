package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatstat/internal/index"
	"github.com/Zuo-Peng/chatstat/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorNotice  = "\033[2;35m" // dim magenta for group notifications
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

// senderColors are assigned to senders by a stable hash of the name.
var senderColors = []string{
	"\033[1;34m", // bold blue
	"\033[1;32m", // bold green
	"\033[1;36m", // bold cyan
	"\033[1;33m", // bold yellow
	"\033[1;35m", // bold magenta
	"\033[1;31m", // bold red
}

type Options struct {
	HitMsgID int
	Context  int    // messages before/after hit to show
	Width    int    // wrap width (0 = no wrap)
	Query    string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	terms := strings.Fields(query)
	var filtered []string
	for _, t := range terms {
		if !fts5Operators[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return text
	}
	for _, term := range filtered {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

func senderColor(sender string) string {
	if sender == parse.GroupNotification {
		return colorNotice
	}
	var h uint32
	for i := 0; i < len(sender); i++ {
		h = h*31 + uint32(sender[i])
	}
	return senderColors[h%uint32(len(senderColors))]
}

// RenderConversation renders a stored conversation and returns the content,
// the 0-based line number of the hit message header (-1 if no hit), and any error.
func RenderConversation(db *index.DB, key string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1000000 // no limit
	}

	t, err := db.GetTranscript(key)
	if err != nil {
		return "", -1, fmt.Errorf("get transcript: %w", err)
	}

	msgs, hitIdx, startPos, totalCount, err := db.GetMessagesWindow(key, opts.HitMsgID, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}

	if totalCount == 0 {
		return "(empty transcript)", -1, nil
	}

	skipAfter := totalCount - startPos - len(msgs)

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	wrapW := opts.Width

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		wrapped := wrapLine(s, wrapW)
		for _, wl := range wrapped {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	writeLine(fmt.Sprintf("%s--- %s [%s] %s ---%s", colorDim, t.Title, t.Source, key, colorReset))

	if startPos > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, startPos, colorReset))
	}

	for i, m := range msgs {
		isHit := i == hitIdx
		if isHit {
			hitLine = lineCount
		}

		ts := m.Ts
		if ts == "" {
			ts = strings.TrimSpace(m.Header)
		} else if len(ts) >= 16 {
			ts = strings.Replace(ts[:16], "T", " ", 1)
		}

		label := m.Sender
		if m.Sender == parse.GroupNotification {
			label = "*"
		}
		if isHit {
			writeLine(fmt.Sprintf("%s>> %s  %s <<%s", colorHit, ts, label, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s%s  %s%s%s", colorDim, ts, colorReset, senderColor(m.Sender), label, colorReset))
		}

		text := strings.TrimRight(m.Body, "\n")
		if m.Sender == parse.GroupNotification {
			text = colorDim + text + colorReset
		}
		text = highlightKeywords(text, opts.Query)
		text = indentLines(text, "  ")

		for _, tl := range strings.Split(text, "\n") {
			writeLine(tl)
		}
	}

	if skipAfter > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, skipAfter, colorReset))
	}

	return b.String(), hitLine, nil
}
