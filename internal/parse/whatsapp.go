package parse

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const maxFileSize = 256 * 1024 * 1024 // 256MB

// header is one "d/m/yy, HH:MM - " match.
type header struct {
	start, end int
	line       int

	day, month, year int
	yearDigits       int
	hour, minute     int
}

// timestamp validates the captured fields. Two-digit years below 70 are
// 20xx, the rest 19xx.
func (h header) timestamp() (time.Time, bool) {
	year := h.year
	switch h.yearDigits {
	case 2:
		if year < 70 {
			year += 2000
		} else {
			year += 1900
		}
	case 4:
	default:
		return time.Time{}, false
	}
	if h.month < 1 || h.month > 12 || h.day < 1 || h.hour > 23 || h.minute > 59 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(h.month), h.day, h.hour, h.minute, 0, 0, time.UTC)
	// time.Date normalises 31/2 into March
	if ts.Day() != h.day || ts.Month() != time.Month(h.month) {
		return time.Time{}, false
	}
	return ts, true
}

// tokenizer walks the transcript one timestamp header at a time.
type tokenizer struct {
	src     string
	pos     int
	linePos int
	lineNum int
}

func newTokenizer(src string) *tokenizer {
	return &tokenizer{src: src, lineNum: 1}
}

// nextHeader finds the first header at or after the current position and
// moves past it. Matches never overlap.
func (t *tokenizer) nextHeader() (header, bool) {
	for i := t.pos; i < len(t.src); i++ {
		if !isDigit(t.src[i]) {
			continue
		}
		h, ok := matchHeader(t.src, i)
		if !ok {
			continue
		}
		h.line = t.lineAt(h.start)
		t.pos = h.end
		return h, true
	}
	t.pos = len(t.src)
	return header{}, false
}

func (t *tokenizer) lineAt(pos int) int {
	t.lineNum += strings.Count(t.src[t.linePos:pos], "\n")
	t.linePos = pos
	return t.lineNum
}

// matchHeader reports whether a header starts exactly at s[i].
func matchHeader(s string, i int) (header, bool) {
	h := header{start: i}
	p := i
	var ok bool

	if h.day, p, ok = number(s, p, 1, 2); !ok {
		return h, false
	}
	if p, ok = literal(s, p, '/'); !ok {
		return h, false
	}
	if h.month, p, ok = number(s, p, 1, 2); !ok {
		return h, false
	}
	if p, ok = literal(s, p, '/'); !ok {
		return h, false
	}
	yearStart := p
	if h.year, p, ok = number(s, p, 2, 4); !ok {
		return h, false
	}
	h.yearDigits = p - yearStart
	if h.yearDigits == 3 {
		return h, false
	}
	if p, ok = literal(s, p, ','); !ok {
		return h, false
	}
	if p, ok = space(s, p); !ok {
		return h, false
	}
	if h.hour, p, ok = number(s, p, 1, 2); !ok {
		return h, false
	}
	if p, ok = literal(s, p, ':'); !ok {
		return h, false
	}
	if h.minute, p, ok = number(s, p, 2, 2); !ok {
		return h, false
	}
	if p, ok = space(s, p); !ok {
		return h, false
	}
	if p, ok = literal(s, p, '-'); !ok {
		return h, false
	}
	if p, ok = space(s, p); !ok {
		return h, false
	}
	h.end = p
	return h, true
}

// number consumes the whole digit run at i; its length must be within [lo, hi].
func number(s string, i, lo, hi int) (int, int, bool) {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if n := j - i; n < lo || n > hi {
		return 0, i, false
	}
	v := 0
	for k := i; k < j; k++ {
		v = v*10 + int(s[k]-'0')
	}
	return v, j, true
}

func literal(s string, i int, c byte) (int, bool) {
	if i < len(s) && s[i] == c {
		return i + 1, true
	}
	return i, false
}

// space consumes one whitespace rune; exporters sometimes emit U+202F or U+00A0.
func space(s string, i int) (int, bool) {
	if i >= len(s) {
		return i, false
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if !unicode.IsSpace(r) {
		return i, false
	}
	return i + size, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// splitSender splits a payload of the form "name: message". The name is the
// shortest non-empty run on the first line followed by a colon and
// whitespace; payloads without one belong to GroupNotification.
func splitSender(payload string) (string, string, bool) {
	lineEnd := strings.IndexByte(payload, '\n')
	if lineEnd < 0 {
		lineEnd = len(payload)
	}
	for k := 1; k < lineEnd; k++ {
		if payload[k] != ':' {
			continue
		}
		r, size := utf8.DecodeRuneInString(payload[k+1:])
		if size == 0 || !unicode.IsSpace(r) {
			continue
		}
		return payload[:k], payload[k+1+size:], true
	}
	return GroupNotification, payload, false
}

// ParseText splits raw transcript text into records. Text before the first
// header is dropped; nothing in raw can make it fail.
func ParseText(raw string) *Result {
	result := &Result{}

	tok := newTokenizer(raw)
	cur, ok := tok.nextHeader()
	if !ok {
		result.PreambleBytes = len(raw)
		return result
	}
	result.PreambleBytes = cur.start

	for ok {
		next, found := tok.nextHeader()
		end := len(raw)
		if found {
			end = next.start
		}

		var tsp *time.Time
		if ts, valid := cur.timestamp(); valid {
			tsp = &ts
		} else {
			result.Unparsable++
		}

		sender, body, split := splitSender(raw[cur.end:end])
		if !split {
			result.Notifications++
		}

		rec := NewRecord(len(result.Records), tsp, sender, body)
		rec.Header = raw[cur.start:cur.end]
		rec.LineNumber = cur.line
		result.Records = append(result.Records, rec)

		if tsp != nil {
			if result.Meta.FirstAt.IsZero() || tsp.Before(result.Meta.FirstAt) {
				result.Meta.FirstAt = *tsp
			}
			if result.Meta.LastAt.IsZero() || tsp.After(result.Meta.LastAt) {
				result.Meta.LastAt = *tsp
			}
		}

		cur, ok = next, found
	}

	return result
}

// Parse returns the records of raw in document order.
func Parse(raw string) []Record {
	return ParseText(raw).Records
}

// ParseReader reads the whole export from r.
func ParseReader(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileSize))
	if err != nil {
		return nil, err
	}
	return ParseText(normalize(string(data))), nil
}

func ParseFile(filePath string) (*Result, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	result, err := ParseReader(f)
	if err != nil {
		return nil, err
	}
	result.Meta.FilePath = filePath
	result.Meta.Title = TitleFromPath(filePath)
	result.Meta.Mtime = info.ModTime()
	result.Meta.Size = info.Size()
	return result, nil
}

// normalize strips a UTF-8 BOM and converts CRLF line endings.
func normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// TitleFromPath derives a chat title from an export file name such as
// "WhatsApp Chat with Family.txt".
func TitleFromPath(filePath string) string {
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	for _, prefix := range []string{"WhatsApp Chat with ", "WhatsApp Chat - "} {
		if strings.HasPrefix(base, prefix) {
			return strings.TrimPrefix(base, prefix)
		}
	}
	return base
}

// LooksLikeTranscript reports whether s contains at least one timestamp
// header. Callers pass the first few KB of a file.
func LooksLikeTranscript(s string) bool {
	_, ok := newTokenizer(normalize(s)).nextHeader()
	return ok
}
