package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
)

// VaderScorer scores text offline against the VADER lexicon. It is
// deterministic and needs no credentials.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VaderScorer) PolarityScores(ctx context.Context, text string) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}
	r := s.analyzer.PolarityScores(text)
	return Scores{
		Negative: r.Negative,
		Neutral:  r.Neutral,
		Positive: r.Positive,
		Compound: r.Compound,
	}, nil
}
