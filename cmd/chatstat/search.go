package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatstat/internal/index"
	"github.com/Zuo-Peng/chatstat/internal/open"
	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/render"
	"github.com/Zuo-Peng/chatstat/internal/search"
	"github.com/Zuo-Peng/chatstat/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func searchCmd(flags *globalFlags) *cobra.Command {
	var opts search.Options

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search across imported chats",
		Long: `Search imported messages using FTS5. With a terminal on stdout an interactive
browser opens; Enter opens the hit in $EDITOR. Otherwise output is TSV for fzf:
  transcriptKey, msgId, timestamp, title, sender, snippet

Example shell function:
  csf() {
    chatstat search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'chatstat preview {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --bind 'enter:execute(chatstat open {1} --hit {2})'
  }`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			// refresh the index before searching
			if a.cfg.ExportRoot != "" {
				if stats, err := index.NewIndexer(db, a.log).ImportAll(a.cfg.ExportRoot); err != nil {
					a.log.Warn().Err(err).Msg("auto import failed")
				} else {
					a.log.Debug().Str("stats", stats.String()).Msg("auto import")
				}
			}

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			if isTerminal(os.Stdout) {
				var picked *search.Result
				if query == "" {
					picked, err = tui.RunList(db, opts)
				} else {
					picked, err = tui.Run(db, query, opts)
				}
				if err != nil || picked == nil {
					return err
				}
				return openPicked(db, *picked, query)
			}

			var results []search.Result
			if query == "" {
				results, err = search.ListRecent(db, opts)
			} else {
				opts.Query = query
				results, err = search.Search(db, opts)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				sender := r.Sender
				if sender == parse.GroupNotification {
					sender = "*"
				}
				// first two fields stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s\t%s%s%s\t%s\n",
					r.TranscriptKey,
					r.MsgID,
					sColorDim, r.Ts, sColorReset,
					tsvField(r.Title),
					sColorBlue, tsvField(sender), sColorReset,
					colorizeSnippet(tsvField(r.Snippet)),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Transcript, "transcript", "", "Only search one transcript key")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "Only messages from this sender")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Only messages since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "Max results")

	return cmd
}

// openPicked opens a file-backed hit in $EDITOR; stdin imports have no file,
// so their conversation is printed instead.
func openPicked(db *index.DB, r search.Result, query string) error {
	err := open.OpenTranscript(db, r.TranscriptKey, r.MsgID)
	if err == nil || !errors.Is(err, open.ErrNoFile) {
		return err
	}
	out, _, err := render.RenderConversation(db, r.TranscriptKey, render.Options{
		HitMsgID: r.MsgID,
		Context:  5,
		Query:    query,
	})
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
