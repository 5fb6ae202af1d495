package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const DefaultModel = "gpt-4o-mini"

const polarityInstructions = `You score the sentiment of chat messages the way the VADER analyzer does.
For every message return neg, neu and pos proportions that sum to 1 and a compound score in [-1, 1]
where -1 is extremely negative and 1 is extremely positive. Short greetings and factual statements are
close to 0. Echo each message's index. Return exactly one score per input message.`

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAIScorer asks a model for VADER-style polarity scores through the
// Responses API with a strict JSON schema.
type OpenAIScorer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	retry   retryPolicy
}

func NewOpenAIScorer(opts OpenAIOptions) (*OpenAIScorer, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai scorer: api key is empty")
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey), option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)

	return &OpenAIScorer{
		client:  &client,
		model:   model,
		timeout: opts.Timeout,
		retry:   defaultRetry,
	}, nil
}

type polarityRequest struct {
	Messages []polarityInput `json:"messages"`
}

type polarityInput struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type polarityResponse struct {
	Scores []polarityItem `json:"scores"`
}

type polarityItem struct {
	Index    int     `json:"index"`
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

var polaritySchema = generateSchema[polarityResponse]()

func (s *OpenAIScorer) PolarityScores(ctx context.Context, text string) (Scores, error) {
	out, err := s.PolarityBatch(ctx, []string{text})
	if err != nil {
		return Scores{}, err
	}
	return out[0], nil
}

func (s *OpenAIScorer) PolarityBatch(ctx context.Context, texts []string) ([]Scores, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := polarityRequest{Messages: make([]polarityInput, len(texts))}
	for i, t := range texts {
		req.Messages[i] = polarityInput{Index: i, Text: t}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model:        s.model,
		Instructions: openai.String(polarityInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(string(payload), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "PolarityScores",
					Schema:      polaritySchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Polarity scores JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := s.retry.call(ctx, func(ctx context.Context) (*responses.Response, error) {
		return s.client.Responses.New(ctx, params)
	})
	if err != nil {
		return nil, err
	}

	var out polarityResponse
	if err := decodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, err
	}

	scores := make([]Scores, len(texts))
	seen := make([]bool, len(texts))
	for _, item := range out.Scores {
		if item.Index < 0 || item.Index >= len(texts) || seen[item.Index] {
			return nil, fmt.Errorf("model returned unexpected index %d", item.Index)
		}
		seen[item.Index] = true
		scores[item.Index] = Scores{
			Negative: item.Negative,
			Neutral:  item.Neutral,
			Positive: item.Positive,
			Compound: clamp(item.Compound),
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("model returned no score for message %d", i)
		}
	}
	return scores, nil
}

func clamp(v float64) float64 {
	return max(-1, min(1, v))
}

// decodeModelJSON unmarshals model output, falling back to the outermost
// {...} when the model wraps the object in prose or code fences.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}
