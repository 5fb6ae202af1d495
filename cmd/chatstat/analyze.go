package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatstat/internal/render"
	"github.com/Zuo-Peng/chatstat/internal/report"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var user, format string
	var opts report.Options

	cmd := &cobra.Command{
		Use:   "analyze <file|transcriptKey|->",
		Short: "Print statistics, timelines and sentiment for a chat",
		Long: `Analyze an export file, an imported transcript key, or a transcript on stdin ("-").
--user restricts every section to one sender; the default is the whole chat.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q (text, json or yaml)", format)
			}

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			table, title, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			a.checkSender(table, user)

			opts.Title = title
			r, err := a.builder(!opts.NoSentiment).Build(cmd.Context(), table, user, opts)
			if err != nil {
				return err
			}
			if r.Sentiment != nil && r.Sentiment.Error != "" {
				a.log.Warn().Str("error", r.Sentiment.Error).Msg("sentiment analysis failed")
			}

			switch format {
			case formatJSON:
				return report.WriteJSON(os.Stdout, r)
			case formatYAML:
				return report.WriteYAML(os.Stdout, r)
			}

			ro := render.ReportOptions{Color: isTerminal(os.Stdout)}
			if ro.Color {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					ro.Width = w
				}
			}
			return render.Report(os.Stdout, r, ro)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", transcript.Overall, "Sender to analyze")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.NoSentiment, "no-sentiment", false, "Skip sentiment classification")
	cmd.Flags().IntVar(&opts.TopEmoji, "top-emoji", report.DefaultTopEmoji, "Emoji rows to show")
	cmd.Flags().IntVar(&opts.TopTokens, "top-words", report.DefaultTopTokens, "Most common words to show")

	return cmd
}
