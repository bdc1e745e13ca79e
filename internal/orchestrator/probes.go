package orchestrator

import (
	"context"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// Capability probes. These are the boolean queries the editor integration
// uses to decide which commands to surface. Failures never escape: a probe
// that cannot complete reports false.

func (e *Engine) IsNotebookSupported(ctx context.Context) bool {
	return e.supports(ctx, commandfinder.CapabilityNotebookServer)
}

func (e *Engine) IsImportSupported(ctx context.Context) bool {
	return e.supports(ctx, commandfinder.CapabilityFileConverter)
}

func (e *Engine) IsKernelCreateSupported(ctx context.Context) bool {
	return e.supports(ctx, commandfinder.CapabilityKernelSpecCreate)
}

func (e *Engine) IsKernelSpecSupported(ctx context.Context) bool {
	return e.supports(ctx, commandfinder.CapabilityKernelSpecList)
}

// IsSpawnSupported reports whether fire-and-forget notebook launches work:
// it needs both an interpreter usable for Jupyter and notebook support.
func (e *Engine) IsSpawnSupported(ctx context.Context) bool {
	usable, err := e.UsableInterpreter(ctx)
	if err != nil || usable == nil {
		return false
	}
	return e.supports(ctx, commandfinder.CapabilityNotebookServer)
}

func (e *Engine) supports(ctx context.Context, capability commandfinder.Capability) bool {
	result, err := e.finder.FindBestCommand(ctx, capability)
	if err != nil {
		logging.Debug(logSubsystem, "probe %s failed: %v", capability, err)
		return false
	}
	return result.Command != nil
}
