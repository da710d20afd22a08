package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "onmydesk",
	Short:         "onmydesk - scheduled report generation",
	Long:          `onmydesk runs SQL reports into CSV, TSV and XLSX files, on demand or on a recurring schedule.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file, relative to the project root")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(schedulerProcessCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
