// Package stats computes activity, temporal and lexical aggregates over a
// transcript table. Every query takes a sender filter (or
// transcript.Overall) and never fails; empty input yields zero values.
package stats

import (
	"math"
	"strings"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

// TopSenders is how many senders MostActiveSenders ranks in Top.
const TopSenders = 5

type URLFinder interface {
	FindURLs(text string) []string
}

type EmojiDetector interface {
	IsEmoji(grapheme string) bool
}

type Engine struct {
	urls  URLFinder
	emoji EmojiDetector
}

func New(urls URLFinder, emoji EmojiDetector) *Engine {
	return &Engine{urls: urls, emoji: emoji}
}

type Summary struct {
	Messages int `json:"messages" yaml:"messages"`
	Words    int `json:"words" yaml:"words"`
	Media    int `json:"media" yaml:"media"`
	Links    int `json:"links" yaml:"links"`
}

// LabelCount is one row of a ranked or ordered count table.
type LabelCount struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

type SenderShare struct {
	Sender  string  `json:"sender" yaml:"sender"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

type Activity struct {
	Top    []LabelCount  `json:"top" yaml:"top"`
	Shares []SenderShare `json:"shares" yaml:"shares"`
}

func isMediaPlaceholder(body string) bool {
	return body == parse.MediaOmitted+"\n"
}

func containsMedia(body string) bool {
	return strings.Contains(body, parse.MediaOmitted)
}

// FetchStats counts messages, whitespace-separated words, media placeholders
// and links for the selected sender.
func (e *Engine) FetchStats(sender string, t *transcript.Table) Summary {
	var s Summary
	t.Filter(sender).Each(func(r parse.Record) {
		s.Messages++
		s.Words += len(strings.Fields(r.Body))
		if isMediaPlaceholder(r.Body) {
			s.Media++
		}
		if e.urls != nil {
			s.Links += len(e.urls.FindURLs(r.Body))
		}
	})
	return s
}

// MostActiveSenders ranks senders over the whole table regardless of any
// filter. Shares are percentages of all messages rounded to two decimals.
func (e *Engine) MostActiveSenders(t *transcript.Table) Activity {
	c := newCounter()
	t.Each(func(r parse.Record) {
		c.add(r.Sender)
	})

	ranked := c.ranked()
	act := Activity{
		Top:    []LabelCount{},
		Shares: make([]SenderShare, 0, len(ranked)),
	}
	for i, lc := range ranked {
		if i < TopSenders {
			act.Top = append(act.Top, lc)
		}
		act.Shares = append(act.Shares, SenderShare{
			Sender:  lc.Label,
			Count:   lc.Count,
			Percent: round2(float64(lc.Count) / float64(t.Len()) * 100),
		})
	}
	return act
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
