package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func listCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported transcripts, most recent activity first",
		Args:  cobra.NoArgs,
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

			rows, err := db.ListTranscripts(limit)
			if err != nil {
				return fmt.Errorf("list transcripts: %w", err)
			}
			if len(rows) == 0 {
				fmt.Fprintln(os.Stderr, "No transcripts imported yet (run 'chatstat import').")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tMESSAGES\tFIRST\tLAST\tIMPORTED\tTITLE")
			for _, r := range rows {
				imported := r.ImportedAt
				if ts, err := time.Parse(time.RFC3339, r.ImportedAt); err == nil {
					imported = humanize.Time(ts)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Key, humanize.Comma(int64(r.Messages)), day(r.FirstAt), day(r.LastAt), imported, r.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max transcripts (0 = no limit)")

	return cmd
}

func day(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	if ts == "" {
		return "-"
	}
	return ts
}
