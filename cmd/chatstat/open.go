package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatstat/internal/open"
)

func openCmd(flags *globalFlags) *cobra.Command {
	var hitMsgID int

	cmd := &cobra.Command{
		Use:   "open <transcriptKey>",
		Short: "Open the original export file in $EDITOR at the hit line",
		Args:  cobra.ExactArgs(1),
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

			return open.OpenTranscript(db, args[0], hitMsgID)
		},
	}

	cmd.Flags().IntVar(&hitMsgID, "hit", -1, "Message ID to jump to")

	return cmd
}
