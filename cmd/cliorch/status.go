package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/executor"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-provider health, circuit and rate-limit state",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "re-render when the config file backing this run changes")
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	renderStatus(conductor)

	if !statusWatch {
		return nil
	}

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		return fmt.Errorf("--watch requires --config")
	}
	return watchAndRender(configPath, conductor)
}

func renderStatus(conductor *cliorch.Conductor) {
	status := conductor.Status()
	fmt.Printf("Current provider: %s\n\n", status.CurrentProvider)
	fmt.Printf("%-12s %-11s %-11s %-11s %-10s %-10s\n", "PROVIDER", "HEALTHY", "CIRCUIT", "RATE LIMIT", "SUCCESSES", "FAILURES")
	for _, h := range status.Health {
		fmt.Printf("%-12s %-11s %-11s %-11s %-10d %-10d\n",
			h.Provider, healthyLabel(h.Healthy), circuitLabel(h.Circuit.State), rateLimitLabel(h.RateLimited),
			h.Successes, h.Failures)
	}
	fmt.Printf("\nTotal attempts: %d  successes: %d  failures: %d  switches: %d\n",
		status.Metrics.TotalAttempts, status.Metrics.TotalSuccesses, status.Metrics.TotalFailures, status.Metrics.TotalSwitches)
}

func healthyLabel(healthy bool) string {
	if healthy {
		return color.GreenString("healthy")
	}
	return color.RedString("unhealthy")
}

func circuitLabel(state cliorch.CircuitState) string {
	switch state {
	case cliorch.StateClosed:
		return color.GreenString("closed")
	case cliorch.StateHalfOpen:
		return color.YellowString("half-open")
	case cliorch.StateOpen:
		return color.RedString("open")
	default:
		return state.String()
	}
}

func rateLimitLabel(limited bool) string {
	if limited {
		return color.RedString("limited")
	}
	return color.GreenString("clear")
}

// watchAndRender re-renders the status table whenever the config file
// changes on disk, debounced the way the teacher pack's skill watcher
// debounces SKILL.md edits, until interrupted.
func watchAndRender(configPath string, conductor *cliorch.Conductor) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var pending *time.Timer
	render := func() {
		fmt.Println(strings.Repeat("-", 60))
		renderStatus(conductor)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(250*time.Millisecond, render)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("status watcher error", "error", werr)

		case <-sigCh:
			return nil
		}
	}
}
