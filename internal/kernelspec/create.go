package kernelspec

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// createSpecFor installs a fresh kernel spec for the interpreter and rewrites
// its argv[0] so the spec launches exactly that interpreter rather than
// whichever python the install command ran under. Returns nil (no error)
// when spec creation is not supported on this machine.
func (m *Matcher) createSpecFor(ctx context.Context, target *interpreters.Interpreter) (*jupyter.KernelSpec, error) {
	createResult, err := m.finder.FindBestCommand(ctx, commandfinder.CapabilityKernelSpecCreate)
	if err != nil {
		return nil, err
	}
	if createResult.Command == nil {
		logging.Debug(logSubsystem, "kernel spec creation unsupported: %s", createResult.Error)
		return nil, nil
	}

	name := "jupyterd-" + uuid.NewString()
	displayName := fmt.Sprintf("Python %d", target.Version.Major)

	out, err := createResult.Command.Exec(ctx, process.Options{},
		"install", "--user", "--name", name, "--display-name", displayName)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("ipykernel install exited with %d: %s", out.ExitCode, out.Stderr)
	}
	logging.Info(logSubsystem, "installed kernel spec %s for %s", name, target.Path)

	spec, err := m.findInstalledSpec(ctx, name)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, fmt.Errorf("kernel spec %s not found after install", name)
	}

	// Rebind the spec to the target interpreter.
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("kernel spec %s has an empty argv", name)
	}
	spec.Argv[0] = target.Path
	spec.Path = target.Path
	if err := writeSpecFile(spec); err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", spec.SpecFile, err)
	}
	return spec, nil
}

// findInstalledSpec re-enumerates and returns the spec with the given name,
// reading the on-disk file so argv rewrites land in the right place.
func (m *Matcher) findInstalledSpec(ctx context.Context, name string) (*jupyter.KernelSpec, error) {
	listResult, err := m.finder.FindBestCommand(ctx, commandfinder.CapabilityKernelSpecList)
	if err != nil {
		return nil, err
	}
	if listResult.Command == nil {
		return nil, fmt.Errorf("kernelspec listing unavailable: %s", listResult.Error)
	}
	specs, err := enumerateOnDisk(ctx, listResult.Command)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if spec.Name == name {
			onDisk, err := readSpecFile(spec.SpecFile)
			if err != nil {
				return nil, err
			}
			onDisk.Name = name
			return onDisk, nil
		}
	}
	return nil, nil
}
