// Package report gathers every aggregate for one sender into a single
// value that renderers and encoders consume.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Zuo-Peng/chatstat/internal/sentiment"
	"github.com/Zuo-Peng/chatstat/internal/stats"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

const (
	DefaultTopEmoji  = 10
	DefaultTopTokens = 20
)

type Options struct {
	Title     string
	TopEmoji  int
	TopTokens int
	// NoSentiment skips the classifier even when one is configured.
	NoSentiment bool
}

type Report struct {
	Title     string             `json:"title,omitempty" yaml:"title,omitempty"`
	Sender    string             `json:"sender" yaml:"sender"`
	Summary   stats.Summary      `json:"summary" yaml:"summary"`
	Activity  *stats.Activity    `json:"activity,omitempty" yaml:"activity,omitempty"`
	Emoji     []stats.LabelCount `json:"emoji" yaml:"emoji"`
	Monthly   []stats.MonthPoint `json:"monthly" yaml:"monthly"`
	Daily     []stats.DayPoint   `json:"daily" yaml:"daily"`
	Weekdays  []stats.LabelCount `json:"weekdays" yaml:"weekdays"`
	Months    []stats.LabelCount `json:"months" yaml:"months"`
	Heatmap   stats.Heatmap      `json:"heatmap" yaml:"heatmap"`
	Sentiment *SentimentSection  `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Cloud     CloudSection       `json:"cloud" yaml:"cloud"`
}

type SentimentSection struct {
	Counts sentiment.Counts `json:"counts" yaml:"counts"`
	// Percentages are nil when no message was eligible.
	Percentages *Percentages `json:"percentages,omitempty" yaml:"percentages,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

type Percentages struct {
	Positive float64 `json:"positive" yaml:"positive"`
	Negative float64 `json:"negative" yaml:"negative"`
	Neutral  float64 `json:"neutral" yaml:"neutral"`
}

type CloudSection struct {
	Chars     int                `json:"chars" yaml:"chars"`
	TopTokens []stats.LabelCount `json:"top_tokens" yaml:"top_tokens"`
}

type Builder struct {
	Engine     *stats.Engine
	Classifier *sentiment.Classifier
}

// Build runs every query for sender. A sentiment failure is recorded in the
// report rather than returned; only context cancellation aborts.
func (b Builder) Build(ctx context.Context, t *transcript.Table, sender string, opts Options) (*Report, error) {
	if opts.TopEmoji <= 0 {
		opts.TopEmoji = DefaultTopEmoji
	}
	if opts.TopTokens <= 0 {
		opts.TopTokens = DefaultTopTokens
	}
	e := b.Engine

	r := &Report{
		Title:    opts.Title,
		Sender:   sender,
		Summary:  e.FetchStats(sender, t),
		Emoji:    head(e.EmojiFrequency(sender, t), opts.TopEmoji),
		Monthly:  e.MonthlyTimeline(sender, t),
		Daily:    e.DailyTimeline(sender, t),
		Weekdays: e.WeekdayHistogram(sender, t),
		Months:   e.MonthHistogram(sender, t),
		Heatmap:  e.ActivityHeatmap(sender, t),
	}
	if sender == transcript.Overall {
		act := e.MostActiveSenders(t)
		r.Activity = &act
	}

	cloud := e.WordCloudText(sender, t)
	r.Cloud = CloudSection{Chars: len(cloud), TopTokens: stats.TopTokens(cloud, opts.TopTokens)}

	if b.Classifier != nil && !opts.NoSentiment {
		counts, err := b.Classifier.Classify(ctx, sender, t)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !errors.Is(err, sentiment.ErrNoScorer) {
				r.Sentiment = &SentimentSection{Error: err.Error()}
			}
		} else {
			r.Sentiment = &SentimentSection{Counts: counts}
			if pos, neg, neu, ok := counts.Percentages(); ok {
				r.Sentiment.Percentages = &Percentages{Positive: pos, Negative: neg, Neutral: neu}
			}
		}
	}
	return r, nil
}

func head(rows []stats.LabelCount, n int) []stats.LabelCount {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
