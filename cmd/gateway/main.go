package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/buildpeek/buildpeek/pkg/gateway"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "buildpeek",
	Short: "read-only gateway over Azure DevOps pipeline builds",
	Long: `buildpeek exposes a small REST API over one Azure DevOps pipeline build:
summary, timeline, failed tasks and their logs, failed jobs, previous build
resolution and comparison against the previous build.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file (ignore error if file doesn't exist - env vars might be set externally)
		_ = godotenv.Load()

		// Setup signal handling for graceful shutdown
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		gw, err := gateway.NewFromConfigFile(ctx, cfgFile)
		if err != nil {
			return err
		}

		// Start the gateway (blocks until shutdown)
		return gw.Start(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "configs/gateway.yaml", "path to the gateway config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}
