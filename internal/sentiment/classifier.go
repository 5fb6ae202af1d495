// Package sentiment labels messages positive, negative or neutral from the
// compound polarity reported by a Scorer.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

// ErrNoScorer is returned by Classify when no polarity scorer is configured.
var ErrNoScorer = errors.New("sentiment: no scorer configured")

const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scores is the polarity breakdown of one text. Compound is in [-1, 1].
type Scores struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

type Scorer interface {
	PolarityScores(ctx context.Context, text string) (Scores, error)
}

// BatchScorer is implemented by scorers that can score many texts in one
// round trip. The result has one entry per input, in order.
type BatchScorer interface {
	Scorer
	PolarityBatch(ctx context.Context, texts []string) ([]Scores, error)
}

type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Neutral  Polarity = "neutral"
)

// Label maps a compound score onto a polarity.
func Label(compound float64) Polarity {
	switch {
	case compound >= PositiveThreshold:
		return Positive
	case compound <= NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

type Counts struct {
	Positive int `json:"positive" yaml:"positive"`
	Negative int `json:"negative" yaml:"negative"`
	Neutral  int `json:"neutral" yaml:"neutral"`
}

func (c Counts) Total() int {
	return c.Positive + c.Negative + c.Neutral
}

// Percentages returns each share of Total in percent. ok is false when
// there is nothing to divide by.
func (c Counts) Percentages() (pos, neg, neu float64, ok bool) {
	total := c.Total()
	if total == 0 {
		return 0, 0, 0, false
	}
	f := 100 / float64(total)
	return float64(c.Positive) * f, float64(c.Negative) * f, float64(c.Neutral) * f, true
}

func (c *Counts) add(p Polarity) {
	switch p {
	case Positive:
		c.Positive++
	case Negative:
		c.Negative++
	default:
		c.Neutral++
	}
}

const defaultBatchSize = 40

type Classifier struct {
	scorer    Scorer
	batchSize int
}

func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer, batchSize: defaultBatchSize}
}

// Eligible returns the bodies Classify would score for sender: every body
// that does not contain a media placeholder.
func Eligible(sender string, t *transcript.Table) []string {
	var texts []string
	t.Filter(sender).Each(func(r parse.Record) {
		if strings.Contains(r.Body, parse.MediaOmitted) {
			return
		}
		texts = append(texts, r.Body)
	})
	return texts
}

// Classify scores every eligible message of sender and counts the labels.
// The first scorer error aborts the run.
func (c *Classifier) Classify(ctx context.Context, sender string, t *transcript.Table) (Counts, error) {
	var counts Counts
	if c == nil || c.scorer == nil {
		return counts, ErrNoScorer
	}

	texts := Eligible(sender, t)
	if len(texts) == 0 {
		return counts, nil
	}

	if bs, ok := c.scorer.(BatchScorer); ok {
		for start := 0; start < len(texts); start += c.batchSize {
			end := min(start+c.batchSize, len(texts))
			scores, err := bs.PolarityBatch(ctx, texts[start:end])
			if err != nil {
				return Counts{}, fmt.Errorf("score messages %d-%d: %w", start, end-1, err)
			}
			if len(scores) != end-start {
				return Counts{}, fmt.Errorf("score messages %d-%d: got %d scores", start, end-1, len(scores))
			}
			for _, s := range scores {
				counts.add(Label(s.Compound))
			}
		}
		return counts, nil
	}

	for i, text := range texts {
		s, err := c.scorer.PolarityScores(ctx, text)
		if err != nil {
			return Counts{}, fmt.Errorf("score message %d: %w", i, err)
		}
		counts.add(Label(s.Compound))
	}
	return counts, nil
}
