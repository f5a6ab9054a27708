package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/m3rciful/ipswbot/core/buildinfo"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "ipswbot",
	Short:   "Telegram bot that watches Apple firmware signing status",
	Version: buildinfo.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(
		newRunCmd(),
		newMigrateCmd(),
	)
	// .env is optional; real deployments inject env vars directly.
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
