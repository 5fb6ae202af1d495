package stats

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

// WordCloudText joins, space separated, every body worth drawing in a word
// cloud: media placeholders, literal "null" bodies, group notifications and
// blank messages are left out. The "null" test ignores case and surrounding
// whitespace, so a body of "null\n" is dropped as well.
func (e *Engine) WordCloudText(sender string, t *transcript.Table) string {
	var parts []string
	t.Filter(sender).Each(func(r parse.Record) {
		if !cloudCandidate(r) {
			return
		}
		parts = append(parts, r.Body)
	})
	return strings.Join(parts, " ")
}

func cloudCandidate(r parse.Record) bool {
	if containsMedia(r.Body) || r.IsNotification() {
		return false
	}
	trimmed := strings.TrimSpace(r.Body)
	return trimmed != "" && !strings.EqualFold(trimmed, "null")
}

// TopTokens returns the n most frequent lower-cased words of text with
// surrounding punctuation removed. n <= 0 returns every token.
func TopTokens(text string, n int) []LabelCount {
	c := newCounter()
	for _, f := range strings.Fields(text) {
		tok := strings.TrimFunc(strings.ToLower(f), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok == "" {
			continue
		}
		c.add(tok)
	}
	ranked := c.ranked()
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// EmojiFrequency counts emoji grapheme clusters, so skin-tone and ZWJ
// sequences count once. Ranked by count, ties in first-seen order.
func (e *Engine) EmojiFrequency(sender string, t *transcript.Table) []LabelCount {
	c := newCounter()
	if e.emoji == nil {
		return c.ranked()
	}
	t.Filter(sender).Each(func(r parse.Record) {
		g := uniseg.NewGraphemes(r.Body)
		for g.Next() {
			if cluster := g.Str(); e.emoji.IsEmoji(cluster) {
				c.add(cluster)
			}
		}
	})
	return c.ranked()
}
