// Command cliorch exercises the dispatcher end to end: send a prompt through
// the full orchestration path, or inspect provider health.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

var rootCmd = &cobra.Command{
	Use:   "cliorch",
	Short: "Resilient dispatcher for CLI-backed AI coding agents",
	Long: `cliorch selects among CLI-backed coding agents (claude, cursor, gemini,
copilot, codex, aider, opencode, kilocode, ...), retrying and falling back
across providers on rate limits, timeouts and circuit-breaker trips.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a cliorch config file (YAML or TOML)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("default-provider", "", "override the configured default provider")
	rootCmd.PersistentFlags().String("fallback-providers", "", "comma-separated override of the fallback chain")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(providersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel(levelName string) {
	switch levelName {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}
