package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatstat/internal/report"
	"github.com/Zuo-Peng/chatstat/internal/tui"
)

func dashboardCmd(flags *globalFlags) *cobra.Command {
	var opts report.Options

	cmd := &cobra.Command{
		Use:   "dashboard <file|transcriptKey>",
		Short: "Browse per-sender reports in an interactive dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" {
				return errors.New("dashboard needs a terminal on stdin; import the transcript first")
			}
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			table, title, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			opts.Title = title
			return tui.RunDashboard(cmd.Context(), table, a.builder(true), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoSentiment, "no-sentiment", false, "Start with sentiment classification off")

	return cmd
}
