package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chatstat/internal/index"
)

type Result struct {
	TranscriptKey string
	MsgID         int
	Title         string
	Ts            string
	Sender        string
	Snippet       string
	LineNumber    int
	Rank          float64
}

type Options struct {
	Query      string
	Transcript string // "" = all
	Sender     string // "" = all
	Since      string // "" = no filter, e.g. "2024-01-01"
	Limit      int
}

// containsCJK returns true if the string contains any CJK ideograph, kana or hangul.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	text = strings.TrimRight(text, "\n")
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if query == "" || idx < 0 || len(lower) != len(text) {
		// no match (or case folding changed byte offsets), return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Search returns the best matches, at most one per message.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
		if err != nil && strings.Contains(err.Error(), "syntax error") {
			// chat text is full of punctuation FTS5 treats as syntax
			opts.Query = quoteTerms(opts.Query)
			results, err = searchFTS(db, opts)
		}
	}
	if err != nil {
		return nil, err
	}

	type msgKey struct {
		key string
		id  int
	}
	seen := make(map[msgKey]bool)
	var deduped []Result
	for _, r := range results {
		k := msgKey{r.TranscriptKey, r.MsgID}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// quoteTerms turns every whitespace-separated term into an FTS5 string.
func quoteTerms(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// filters builds the shared transcript/sender/since conditions.
func filters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Transcript != "" {
		conditions = append(conditions, "m.transcript_key = ?")
		args = append(args, opts.Transcript)
	}
	if opts.Sender != "" {
		conditions = append(conditions, "m.sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Since != "" {
		// untimed messages have ts = '' and never pass
		conditions = append(conditions, "m.ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []any{opts.Query}
	fc, fa := filters(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			m.transcript_key,
			m.msg_id,
			t.title,
			m.ts,
			m.sender,
			snippet(messages_fts, 0, '>>>','<<<', '...', 24) as snip,
			m.line_number,
			bm25(messages_fts) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN transcripts t ON m.transcript_key = t.transcript_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"m.body LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	fc, fa := filters(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			m.transcript_key,
			m.msg_id,
			t.title,
			m.ts,
			m.sender,
			m.body,
			m.line_number
		FROM messages m
		JOIN transcripts t ON m.transcript_key = t.transcript_key
		WHERE %s
		ORDER BY m.ts DESC, m.msg_id DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var body string
		if err := rows.Scan(
			&r.TranscriptKey, &r.MsgID, &r.Title,
			&r.Ts, &r.Sender, &body, &r.LineNumber,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(body, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.TranscriptKey, &r.MsgID, &r.Title,
			&r.Ts, &r.Sender, &r.Snippet, &r.LineNumber, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListRecent returns the newest messages, for browsing without a query.
func ListRecent(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	conditions, args := filters(opts)
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`
		SELECT m.transcript_key, m.msg_id, t.title, m.ts, m.sender, m.body, m.line_number
		FROM messages m
		JOIN transcripts t ON m.transcript_key = t.transcript_key
		%s
		ORDER BY m.ts DESC, m.msg_id DESC
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var body string
		if err := rows.Scan(&r.TranscriptKey, &r.MsgID, &r.Title, &r.Ts, &r.Sender, &body, &r.LineNumber); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(body, "", 40)
		results = append(results, r)
	}
	return results, rows.Err()
}
