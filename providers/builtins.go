// Package providers composes the built-in CLI adapters and registers them
// against a cliorch.Registry. It exists as a separate package from cliorch
// itself: each subpackage below imports cliorch to implement Adapter, so
// cliorch cannot import them back without an import cycle. §9 calls this
// out directly — the source's lazy, import-on-first-use registry becomes,
// in Go, explicit registration during configuration build. Callers invoke
// RegisterBuiltins once, typically from their composition root
// (cmd/cliorch or wherever a Configuration is assembled), before building
// a ProviderManager.
package providers

import (
	"github.com/cliorch/cliorch"
	"github.com/cliorch/cliorch/providers/aider"
	"github.com/cliorch/cliorch/providers/claude"
	"github.com/cliorch/cliorch/providers/codex"
	"github.com/cliorch/cliorch/providers/copilot"
	"github.com/cliorch/cliorch/providers/cursor"
	"github.com/cliorch/cliorch/providers/gemini"
	"github.com/cliorch/cliorch/providers/kilocode"
	"github.com/cliorch/cliorch/providers/mock"
	"github.com/cliorch/cliorch/providers/opencode"
)

// RegisterBuiltins registers every CLI adapter this module ships against r.
// Safe to call more than once; later calls simply replace earlier
// registrations with identical factories.
func RegisterBuiltins(r *cliorch.Registry) {
	r.Register("claude", claude.New, "anthropic")
	r.Register("cursor", cursor.New)
	r.Register("gemini", gemini.New, "google")
	r.Register("copilot", copilot.New, "github-copilot")
	r.Register("codex", codex.New, "openai-codex")
	r.Register("aider", aider.New)
	r.Register("opencode", opencode.New)
	r.Register("kilocode", kilocode.New, "kilo-code")
	r.Register("mock", mock.New)
}
