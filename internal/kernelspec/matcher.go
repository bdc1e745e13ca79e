package kernelspec

import (
	"context"
	"strings"

	"github.com/hochshi/vscode-python/internal/commandfinder"
	"github.com/hochshi/vscode-python/internal/interpreters"
	"github.com/hochshi/vscode-python/internal/jupyter"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// SpecProvider enumerates kernel specs from a live server. A session manager
// satisfies it; when nil, the matcher falls back to on-disk enumeration.
type SpecProvider interface {
	GetKernelSpecs(ctx context.Context) ([]*jupyter.KernelSpec, error)
	Connection() *jupyter.ConnectionInfo
}

// Matcher selects, or synthesizes, the kernel spec that best matches the
// target interpreter.
type Matcher struct {
	finder  *commandfinder.Finder
	locator interpreters.Locator
}

// NewMatcher wires a matcher to the command finder and interpreter locator.
func NewMatcher(finder *commandfinder.Finder, locator interpreters.Locator) *Matcher {
	return &Matcher{finder: finder, locator: locator}
}

// GetMatchingKernelSpec returns the spec to launch with, or nil when none
// can be determined. Enumeration failures degrade to nil - the caller
// proceeds without a spec - except when the session's underlying local
// process has already died, which is surfaced as a server crash.
func (m *Matcher) GetMatchingKernelSpec(ctx context.Context, sess SpecProvider) (*jupyter.KernelSpec, error) {
	if sess != nil {
		specs, err := sess.GetKernelSpecs(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if conn := sess.Connection(); conn != nil && conn.LocalProcExitCode != nil {
				if code := conn.LocalProcExitCode(); code != nil {
					return nil, &jupyter.ServerCrashedError{ExitCode: *code}
				}
			}
			logging.Warn(logSubsystem, "enumerating kernel specs over session failed: %v", err)
			return nil, nil
		}
		return m.pickBest(ctx, specs), nil
	}
	return m.matchLocal(ctx)
}

// ListKernelSpecs enumerates the kernel specs installed on this machine.
func (m *Matcher) ListKernelSpecs(ctx context.Context) ([]*jupyter.KernelSpec, error) {
	listResult, err := m.finder.FindBestCommand(ctx, commandfinder.CapabilityKernelSpecList)
	if err != nil {
		return nil, err
	}
	if listResult.Command == nil {
		return nil, &jupyter.InstallMissingError{
			Capability: string(commandfinder.CapabilityKernelSpecList),
			Hint:       "run 'python -m pip install jupyter' in the selected environment",
		}
	}
	return enumerateOnDisk(ctx, listResult.Command)
}

// matchLocal enumerates on-disk specs and synthesizes one if the best
// interpreter is not represented.
func (m *Matcher) matchLocal(ctx context.Context) (*jupyter.KernelSpec, error) {
	listResult, err := m.finder.FindBestCommand(ctx, commandfinder.CapabilityKernelSpecList)
	if err != nil {
		return nil, err
	}
	if listResult.Command == nil {
		logging.Warn(logSubsystem, "kernelspec listing unavailable: %s", listResult.Error)
		return nil, nil
	}

	specs, err := enumerateOnDisk(ctx, listResult.Command)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Warn(logSubsystem, "enumerating kernel specs failed: %v", err)
		return nil, nil
	}

	target, err := m.locator.ActiveInterpreter(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Debug(logSubsystem, "no active interpreter: %v", err)
	}

	// If the target interpreter is not represented by any existing spec and
	// we can create one, synthesize a spec bound to it.
	if target != nil && !anySpecMatchesPath(specs, target.Path) {
		created, err := m.createSpecFor(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Warn(logSubsystem, "kernel spec creation failed: %v", err)
		} else if created != nil {
			return created, nil
		}
	}

	return m.pickBestFor(ctx, specs, target), nil
}

func anySpecMatchesPath(specs []*jupyter.KernelSpec, path string) bool {
	for _, spec := range specs {
		if spec.Path == path {
			return true
		}
	}
	return false
}

// pickBest scores candidates against the active interpreter.
func (m *Matcher) pickBest(ctx context.Context, specs []*jupyter.KernelSpec) *jupyter.KernelSpec {
	target, err := m.locator.ActiveInterpreter(ctx)
	if err != nil {
		logging.Debug(logSubsystem, "no active interpreter while scoring: %v", err)
	}
	return m.pickBestFor(ctx, specs, target)
}

func (m *Matcher) pickBestFor(ctx context.Context, specs []*jupyter.KernelSpec, target *interpreters.Interpreter) *jupyter.KernelSpec {
	if len(specs) == 0 {
		return nil
	}

	bestScore := 0
	var best *jupyter.KernelSpec
	for _, spec := range specs {
		score := m.score(ctx, spec, target)
		logging.Debug(logSubsystem, "spec %s scored %d", spec.Name, score)
		// Strictly greater keeps first-listed on ties.
		if score > bestScore {
			bestScore = score
			best = spec
		}
	}

	if best == nil {
		// Nothing matched; fall back to the first enumerated spec.
		return specs[0]
	}
	return best
}

// score implements the matching heuristic. A candidate whose language is not
// python scores 0 regardless of any other signal.
func (m *Matcher) score(ctx context.Context, spec *jupyter.KernelSpec, target *interpreters.Interpreter) int {
	if !strings.EqualFold(spec.Language, "python") {
		return 0
	}
	score := 1

	if target == nil {
		return score
	}

	exactPath := spec.Path != "" && spec.Path == target.Path
	if exactPath {
		score += 10
	}

	var details *interpreters.Interpreter
	if spec.Path != "" {
		if d, err := m.locator.DetailsFromPath(ctx, spec.Path); err == nil {
			details = d
		}
	}
	switch {
	case details != nil:
		if details.Version.Major == target.Version.Major {
			score += 4
			if details.Version.Minor == target.Version.Minor {
				score += 2
				if details.Version.Patch == target.Version.Patch {
					score += 1
				}
			}
		}
	case !exactPath:
		// No path, or a path that is not resolvable as an interpreter.
		// Best-effort fallback: a trailing digit in the name matching the
		// target's major version is taken as a version hint.
		if nameEndsWithDigit(spec.Name, target.Version.Major) {
			score += 4
		}
	}

	return score
}

func nameEndsWithDigit(name string, major int) bool {
	if name == "" {
		return false
	}
	last := name[len(name)-1]
	return last >= '0' && last <= '9' && int(last-'0') == major
}
