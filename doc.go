// Package cliorch dispatches prompts to CLI-backed AI coding agents
// (claude, cursor, gemini, copilot, codex, aider, opencode, kilocode, and
// any caller-registered adapter) behind a uniform Adapter contract, with
// per-provider circuit breaking, rate-limit tracking, health windowing,
// and automatic fallback across providers.
//
// A typical caller builds a Configuration with a Builder, registers the
// built-in adapters (via the providers subpackage's RegisterBuiltins), and
// drives everything through a Conductor:
//
//	reg := cliorch.NewRegistry()
//	providers.RegisterBuiltins(reg)
//
//	cfg, err := cliorch.NewBuilder(reg).
//		DefaultProvider("claude").
//		FallbackProviders("gemini", "codex").
//		Provider("claude").Done().
//		Provider("gemini").Done().
//		Provider("codex").Done().
//		Build()
//
//	manager, err := cliorch.NewProviderManager(cfg, reg, executor.NewOSExecutor())
//	conductor := cliorch.NewConductor(cfg, manager)
//	resp, err := conductor.Send(ctx, "implement the thing", "", "", cliorch.SendOptions{})
package cliorch
