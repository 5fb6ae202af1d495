package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatstat/internal/config"
	"github.com/Zuo-Peng/chatstat/internal/scan"
)

func doctorCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, export root, DB, FTS5 and sentiment provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			cfg := a.cfg

			fmt.Println("=== Config ===")
			if cfg.Path == "" {
				fmt.Println("  File: (none, defaults in use)")
			} else {
				fmt.Printf("  File: %s\n", cfg.Path)
			}
			fmt.Printf("  Log:  %s/%s\n", cfg.LogLevel, cfg.LogFormat)

			fmt.Println("\n=== Export Root ===")
			checkDir("Exports", cfg.ExportRoot)
			files, err := scan.ScanRoot(cfg.ExportRoot)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  WhatsApp exports: %d\n", len(files))
			}

			fmt.Println("\n=== Sentiment ===")
			checkSentiment(cfg.Sentiment)

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatstat import' first)")
				return nil
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			transcripts, err := db.TranscriptCount()
			if err != nil {
				return fmt.Errorf("count transcripts: %w", err)
			}
			messages, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}
			fmt.Printf("  Transcripts: %s\n", humanize.Comma(int64(transcripts)))
			fmt.Printf("  Messages:    %s\n", humanize.Comma(int64(messages)))

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %s\n", humanize.Comma(int64(ftsCount)))
				if ftsCount == messages {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", messages, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Printf("\n=== DB Size: %s ===\n", humanize.Bytes(uint64(info.Size())))
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkSentiment(s config.Sentiment) {
	fmt.Printf("  Provider: %s\n", s.Provider)
	switch s.Provider {
	case config.ProviderVader:
		fmt.Println("  Status: OK (offline lexicon)")
		return
	case config.ProviderNone:
		fmt.Println("  Status: DISABLED")
		return
	}
	fmt.Printf("  Model:    %s\n", s.Model)
	if s.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", s.BaseURL)
	}
	if s.Enabled() {
		fmt.Printf("  Status: OK (key from $%s)\n", s.APIKeyEnv)
	} else {
		fmt.Printf("  Status: NO KEY ($%s is empty; sentiment is skipped)\n", s.APIKeyEnv)
	}
}
