// Package detect provides the default text capabilities used by the
// analytics engine: URL extraction and emoji grapheme detection.
package detect

import (
	"regexp"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"mvdan.cc/xurls/v2"
)

// URLs finds web links, with or without a scheme ("example.com/x" counts).
type URLs struct {
	re *regexp.Regexp
}

func NewURLs() *URLs {
	return &URLs{re: xurls.Relaxed()}
}

// NewStrictURLs only matches links that carry a scheme.
func NewStrictURLs() *URLs {
	return &URLs{re: xurls.Strict()}
}

func (u *URLs) FindURLs(text string) []string {
	return u.re.FindAllString(text, -1)
}

// Emoji classifies a single grapheme cluster.
type Emoji struct{}

func NewEmoji() Emoji {
	return Emoji{}
}

// IsEmoji reports whether grapheme is an emoji. Plain ASCII ("1", "#", "*")
// never is, even though those code points start keycap sequences.
func (Emoji) IsEmoji(grapheme string) bool {
	if grapheme == "" || isASCII(grapheme) {
		return false
	}
	return gomoji.ContainsEmoji(grapheme)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
