package main

import (
	"fmt"

	"github.com/cliorch/cliorch/executor"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered providers and whether their binary is on PATH",
	RunE:  runProviders,
}

func runProviders(cmd *cobra.Command, args []string) error {
	registry := buildRegistry()
	exec := executor.NewOSExecutor()
	available := make(map[string]bool)
	for _, name := range registry.Available(exec) {
		available[string(name)] = true
	}

	fmt.Printf("%-12s %s\n", "PROVIDER", "ON PATH")
	for _, name := range registry.All() {
		if available[string(name)] {
			fmt.Printf("%-12s %s\n", name, color.GreenString("yes"))
		} else {
			fmt.Printf("%-12s %s\n", name, color.RedString("no"))
		}
	}
	return nil
}
