package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatstat/internal/stats"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

func cloudCmd(flags *globalFlags) *cobra.Command {
	var user string
	var top int

	cmd := &cobra.Command{
		Use:   "cloud <file|transcriptKey|->",
		Short: "Print the word-cloud input text for a chat",
		Long: `Print the filtered message text that feeds a word-cloud renderer: media
placeholders, "null" bodies and blank messages are dropped. With --top the most
frequent words are printed with their counts instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			table, _, err := a.loadTable(args[0])
			if err != nil {
				return err
			}
			a.checkSender(table, user)

			text := newEngine().WordCloudText(user, table)
			if top <= 0 {
				_, err := fmt.Fprintln(os.Stdout, text)
				return err
			}
			for _, t := range stats.TopTokens(text, top) {
				fmt.Printf("%d\t%s\n", t.Count, t.Label)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", transcript.Overall, "Sender to include")
	cmd.Flags().IntVar(&top, "top", 0, "Print the N most frequent words instead of the text")

	return cmd
}
