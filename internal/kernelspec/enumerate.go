// Package kernelspec enumerates, scores and synthesizes Jupyter kernel
// specifications so a connection always launches the interpreter the user
// actually selected.
package kernelspec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/internal/process"
	"github.com/hochshi/vscode-python/pkg/logging"
)

const logSubsystem = "KernelSpec"

// listOutput is the shape of `jupyter kernelspec list --json`.
type listOutput struct {
	KernelSpecs map[string]struct {
		ResourceDir string `json:"resource_dir"`
		Spec        struct {
			Argv        []string `json:"argv"`
			DisplayName string   `json:"display_name"`
			Language    string   `json:"language"`
		} `json:"spec"`
	} `json:"kernelspecs"`
}

// enumerateOnDisk lists the kernel specs installed on this machine through
// the kernelspec-list capability.
func enumerateOnDisk(ctx context.Context, list *commandfinder.Command) ([]*jupyter.KernelSpec, error) {
	out, err := list.Exec(ctx, process.Options{}, "list", "--json")
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("kernelspec list exited with %d: %s", out.ExitCode, out.Stderr)
	}

	var decoded listOutput
	if err := json.Unmarshal([]byte(out.Stdout), &decoded); err != nil {
		return nil, fmt.Errorf("kernelspec list output: %w", err)
	}

	specs := make([]*jupyter.KernelSpec, 0, len(decoded.KernelSpecs))
	for name, entry := range decoded.KernelSpecs {
		spec := &jupyter.KernelSpec{
			Name:        name,
			DisplayName: entry.Spec.DisplayName,
			Language:    entry.Spec.Language,
			Argv:        entry.Spec.Argv,
			SpecFile:    filepath.Join(entry.ResourceDir, "kernel.json"),
		}
		if len(spec.Argv) > 0 {
			spec.Path = spec.Argv[0]
		}
		specs = append(specs, spec)
	}
	sortSpecs(specs)
	return specs, nil
}

// sortSpecs gives enumeration a stable order so "first enumerated wins" is
// deterministic: JSON maps carry no order of their own.
func sortSpecs(specs []*jupyter.KernelSpec) {
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
}

// readSpecFile loads a kernel.json from disk into a KernelSpec.
func readSpecFile(path string) (*jupyter.KernelSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(filepath.Dir(path))
	spec, err := jupyter.ParseKernelSpecFile(name, path, raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return spec, nil
}

// writeSpecFile persists a KernelSpec back to its kernel.json.
func writeSpecFile(spec *jupyter.KernelSpec) error {
	raw, err := jupyter.EncodeKernelSpecFile(spec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(spec.SpecFile, raw, 0o644); err != nil {
		return err
	}
	logging.Debug(logSubsystem, "wrote %s", spec.SpecFile)
	return nil
}
