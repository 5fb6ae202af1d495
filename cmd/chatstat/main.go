package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:           "chatstat",
		Short:         "chatstat - analyze and search exported WhatsApp chats",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log level (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Override log format (console/json)")

	rootCmd.AddCommand(importCmd(&flags))
	rootCmd.AddCommand(listCmd(&flags))
	rootCmd.AddCommand(searchCmd(&flags))
	rootCmd.AddCommand(previewCmd(&flags))
	rootCmd.AddCommand(openCmd(&flags))
	rootCmd.AddCommand(analyzeCmd(&flags))
	rootCmd.AddCommand(sendersCmd(&flags))
	rootCmd.AddCommand(dashboardCmd(&flags))
	rootCmd.AddCommand(cloudCmd(&flags))
	rootCmd.AddCommand(doctorCmd(&flags))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
