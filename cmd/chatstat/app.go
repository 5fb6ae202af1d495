package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatstat/internal/config"
	"github.com/Zuo-Peng/chatstat/internal/detect"
	"github.com/Zuo-Peng/chatstat/internal/index"
	"github.com/Zuo-Peng/chatstat/internal/logging"
	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/report"
	"github.com/Zuo-Peng/chatstat/internal/sentiment"
	"github.com/Zuo-Peng/chatstat/internal/stats"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

type globalFlags struct {
	logLevel  string
	logFormat string
}

// app is what every subcommand starts from: the loaded config and a logger.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func newApp(flags *globalFlags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.Path != "" {
		log.Debug().Str("path", cfg.Path).Msg("config loaded")
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) openDB() (*index.DB, error) {
	db, err := index.OpenDB(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// loadTable resolves arg as stdin ("-"), an export file on disk, or the key
// of an imported transcript, in that order.
func (a *app) loadTable(arg string) (*transcript.Table, string, error) {
	if arg == "-" {
		result, err := parse.ParseReader(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		a.logParse("stdin", result)
		return transcript.New(result.Records), "stdin", nil
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		result, err := parse.ParseFile(arg)
		if err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", arg, err)
		}
		a.logParse(arg, result)
		return transcript.New(result.Records), result.Meta.Title, nil
	}

	db, err := a.openDB()
	if err != nil {
		return nil, "", err
	}
	defer db.Close()

	table, row, err := index.LoadTable(db, arg)
	if errors.Is(err, index.ErrTranscriptNotFound) {
		return nil, "", fmt.Errorf("%s is neither a file nor an imported transcript key (see 'chatstat list')", arg)
	}
	if err != nil {
		return nil, "", err
	}
	return table, row.Title, nil
}

func (a *app) logParse(source string, result *parse.Result) {
	a.log.Debug().
		Str("source", source).
		Int("records", len(result.Records)).
		Int("unparsable", result.Unparsable).
		Int("notifications", result.Notifications).
		Int("preamble_bytes", result.PreambleBytes).
		Msg("parsed transcript")
	if len(result.Records) == 0 {
		a.log.Warn().Str("source", source).Msg("no timestamped messages found; is this a WhatsApp export?")
	}
}

func newEngine() *stats.Engine {
	return stats.New(detect.NewURLs(), detect.NewEmoji())
}

// classifier returns nil when no sentiment provider is usable.
func (a *app) classifier() *sentiment.Classifier {
	s := a.cfg.Sentiment
	if !s.Enabled() {
		a.log.Debug().Str("provider", s.Provider).Msg("sentiment disabled")
		return nil
	}
	if s.Provider == config.ProviderVader {
		return sentiment.NewClassifier(sentiment.NewVaderScorer())
	}
	scorer, err := sentiment.NewOpenAIScorer(sentiment.OpenAIOptions{
		APIKey:  s.APIKey(),
		Model:   s.Model,
		BaseURL: s.BaseURL,
		Timeout: s.Timeout,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("sentiment scorer unavailable")
		return nil
	}
	return sentiment.NewClassifier(scorer)
}

func (a *app) builder(withSentiment bool) report.Builder {
	b := report.Builder{Engine: newEngine()}
	if withSentiment {
		b.Classifier = a.classifier()
	}
	return b
}

// checkSender warns about a filter that matches nobody; the queries still
// run and return zero results.
func (a *app) checkSender(t *transcript.Table, sender string) {
	if sender == transcript.Overall || t.HasSender(sender) {
		return
	}
	a.log.Warn().Str("sender", sender).Strs("known", t.SelectionList()[1:]).Msg("unknown sender; results will be empty")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
