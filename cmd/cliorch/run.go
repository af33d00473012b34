package main

import (
	"errors"
	"fmt"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/spf13/cobra"
)

var (
	sendProvider string
	sendModel    string
)

var sendCmd = &cobra.Command{
	Use:   "send <prompt>",
	Short: "Send a prompt through the dispatcher",
	Long: `Send a prompt to the default provider, retrying and falling back to
other configured providers on rate limits, timeouts, or circuit trips.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendProvider, "provider", "", "preferred provider (falls back per the fallback chain if unhealthy)")
	sendCmd.Flags().StringVar(&sendModel, "model", "", "model override passed to the chosen provider")
}

func runSend(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	setLogLevel(level)

	registry := buildRegistry()
	cfg, err := loadConfiguration(cmd, registry)
	if err != nil {
		return err
	}

	manager, err := cliorch.NewProviderManager(cfg, registry, executor.NewOSExecutor())
	if err != nil {
		return fmt.Errorf("build provider manager: %w", err)
	}
	conductor := cliorch.NewConductor(cfg, manager)

	cfg.Callbacks.OnProviderSwitch(func(d cliorch.ProviderSwitchData) {
		logger.Warn("switched provider", "from", d.From, "to", d.To, "reason", d.Reason)
	})

	resp, err := conductor.Send(cmd.Context(), args[0], cliorch.ProviderName(sendProvider), sendModel, cliorch.SendOptions{})
	if err != nil {
		logSendFailure(err)
		return err
	}

	fmt.Println(resp.Output)
	logger.Debug("send succeeded", "provider", resp.Provider, "model", resp.Model, "duration", resp.Duration)
	return nil
}

// logSendFailure logs a failed send, attaching the taxonomy's human-readable
// category description when err carries one.
func logSendFailure(err error) {
	if desc, ok := categoryDescription(err); ok {
		logger.Error("send failed", "error", err, "category", desc)
		return
	}
	logger.Error("send failed", "error", err)
}

// categoryDescription extracts the taxonomy category BaseAdapter's
// classifyAndWrap attaches to a ProviderError's Context, and resolves it to
// its human-readable description.
func categoryDescription(err error) (string, bool) {
	var perr *cliorch.ProviderError
	if !errors.As(err, &perr) {
		return "", false
	}
	cat, ok := perr.Context["category"]
	if !ok {
		return "", false
	}
	return cliorch.DescriptionFor(cliorch.ErrorCategory(cat)), true
}
