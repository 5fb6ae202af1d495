package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatstat/internal/index"
)

func importCmd(flags *globalFlags) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "import [path|-]",
		Short: "Import WhatsApp exports into the local index",
		Long: `Import a single export file, every .txt export under a directory, or a transcript
piped on stdin ("-"). Without an argument the configured export_root is scanned.
Unchanged files are skipped; transcripts whose file disappeared are pruned.`,
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

			ix := index.NewIndexer(db, a.log)

			target := a.cfg.ExportRoot
			if len(args) == 1 {
				target = args[0]
			}

			if target == "-" {
				key, err := ix.ImportReader(os.Stdin, title)
				if err != nil {
					return err
				}
				fmt.Println(key)
				return nil
			}

			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if !info.IsDir() {
				key, updated, err := ix.ImportFile(target)
				if err != nil {
					return err
				}
				if !updated {
					a.log.Info().Str("transcript", key).Msg("unchanged, skipped")
				}
				fmt.Println(key)
				return nil
			}

			fmt.Fprintf(os.Stderr, "Scanning %s...\n", target)
			stats, err := ix.ImportAll(target)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title for a transcript read from stdin")

	return cmd
}
