package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func sendersCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "senders <file|transcriptKey|->",
		Short: "List the senders that can be passed to --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			table, _, err := a.loadTable(args[0])
			if err != nil {
				return err
			}

			engine := newEngine()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, s := range table.SelectionList() {
				fmt.Fprintf(w, "%s\t%s\n", s, humanize.Comma(int64(engine.FetchStats(s, table).Messages)))
			}
			return w.Flush()
		},
	}
	return cmd
}
