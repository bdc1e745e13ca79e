package interpreters

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochshi/vscode-python/internal/process"
)

// fakeProcs answers version probes from a fixed table and counts executions.
type fakeProcs struct {
	versions map[string]string // path -> probe stdout; missing means exit 1
	execs    map[string]int
}

func newFakeProcs(versions map[string]string) *fakeProcs {
	return &fakeProcs{versions: versions, execs: make(map[string]int)}
}

func (f *fakeProcs) Exec(ctx context.Context, name string, args []string, opts process.Options) (process.Output, error) {
	if err := ctx.Err(); err != nil {
		return process.Output{}, err
	}
	f.execs[name]++
	if out, ok := f.versions[name]; ok {
		return process.Output{Stdout: out}, nil
	}
	return process.Output{Stderr: "no such interpreter", ExitCode: 1}, nil
}

func (f *fakeProcs) Observe(ctx context.Context, name string, args []string, opts process.Options, onStdout, onStderr process.LineFunc) (*process.Observed, error) {
	return nil, errors.New("not supported")
}

func (f *fakeProcs) Spawn(name string, args []string, opts process.Options) (*exec.Cmd, error) {
	return nil, errors.New("not supported")
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in                  string
		major, minor, patch int
		wantErr             bool
	}{
		{in: "3.11.4", major: 3, minor: 11, patch: 4},
		{in: "3.11.4rc1\n", major: 3, minor: 11, patch: 4},
		{in: "3.9", major: 3, minor: 9},
		{in: "2", major: 2},
		{in: "", wantErr: true},
		{in: "python", wantErr: true},
	}
	for _, tc := range tests {
		v, err := ParseVersion(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.major, v.Major, "input %q", tc.in)
		assert.Equal(t, tc.minor, v.Minor, "input %q", tc.in)
		assert.Equal(t, tc.patch, v.Patch, "input %q", tc.in)
	}
}

func TestDetailsFromPathMemoizes(t *testing.T) {
	procs := newFakeProcs(map[string]string{"/usr/bin/python3": "3.11.4\n"})
	locator := NewPathLocator(procs, "", []string{})

	interp, err := locator.DetailsFromPath(context.Background(), "/usr/bin/python3")
	require.NoError(t, err)
	assert.Equal(t, 3, interp.Version.Major)
	assert.Equal(t, 11, interp.Version.Minor)

	_, err = locator.DetailsFromPath(context.Background(), "/usr/bin/python3")
	require.NoError(t, err)
	assert.Equal(t, 1, procs.execs["/usr/bin/python3"], "second lookup must hit the cache")
}

func TestDetailsFromPathRemembersFailures(t *testing.T) {
	procs := newFakeProcs(nil)
	locator := NewPathLocator(procs, "", []string{})

	_, err := locator.DetailsFromPath(context.Background(), "/missing/python")
	require.Error(t, err)

	_, err = locator.DetailsFromPath(context.Background(), "/missing/python")
	require.Error(t, err)
	assert.Equal(t, 1, procs.execs["/missing/python"], "known-bad paths are not re-probed")
}

func TestResetDropsCache(t *testing.T) {
	procs := newFakeProcs(map[string]string{"/usr/bin/python3": "3.11.4"})
	locator := NewPathLocator(procs, "", []string{})

	_, err := locator.DetailsFromPath(context.Background(), "/usr/bin/python3")
	require.NoError(t, err)

	locator.Reset()

	_, err = locator.DetailsFromPath(context.Background(), "/usr/bin/python3")
	require.NoError(t, err)
	assert.Equal(t, 2, procs.execs["/usr/bin/python3"])
}

func TestActiveInterpreterPrefersConfiguredPath(t *testing.T) {
	procs := newFakeProcs(map[string]string{
		"/active/python":   "3.12.0",
		"/fallback/python": "3.8.0",
	})
	locator := NewPathLocator(procs, "/active/python", []string{"/fallback/python"})

	interp, err := locator.ActiveInterpreter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/active/python", interp.Path)
	assert.Equal(t, 0, procs.execs["/fallback/python"])
}

func TestActiveInterpreterFallsThroughBrokenCandidates(t *testing.T) {
	procs := newFakeProcs(map[string]string{"/b/python": "3.10.2"})
	locator := NewPathLocator(procs, "", []string{"/a/python", "/b/python"})

	interp, err := locator.ActiveInterpreter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/b/python", interp.Path)
}

func TestActiveInterpreterNoneFound(t *testing.T) {
	locator := NewPathLocator(newFakeProcs(nil), "", []string{"/a/python"})

	interp, err := locator.ActiveInterpreter(context.Background())
	require.NoError(t, err)
	assert.Nil(t, interp)
}

func TestKnownInterpretersActiveFirstNoDuplicates(t *testing.T) {
	procs := newFakeProcs(map[string]string{
		"/active/python": "3.12.0",
		"/other/python":  "3.9.1",
	})
	locator := NewPathLocator(procs, "/active/python", []string{"/other/python", "/active/python"})

	known, err := locator.KnownInterpreters(context.Background())
	require.NoError(t, err)
	require.Len(t, known, 2)
	assert.Equal(t, "/active/python", known[0].Path)
	assert.Equal(t, "/other/python", known[1].Path)
}

func TestKnownInterpretersIncludePreviouslySeenPaths(t *testing.T) {
	procs := newFakeProcs(map[string]string{
		"/search/python": "3.10.0",
		"/extra/python":  "3.7.3",
	})
	locator := NewPathLocator(procs, "", []string{"/search/python"})

	// A one-off lookup outside the search paths still counts as known.
	_, err := locator.DetailsFromPath(context.Background(), "/extra/python")
	require.NoError(t, err)

	known, err := locator.KnownInterpreters(context.Background())
	require.NoError(t, err)
	paths := make([]string, 0, len(known))
	for _, k := range known {
		paths = append(paths, k.Path)
	}
	assert.Contains(t, paths, "/extra/python")
}

func TestChangeNotifier(t *testing.T) {
	n := NewChangeNotifier()
	fired := 0
	unsubscribe := n.Subscribe(func() { fired++ })

	n.Fire()
	assert.Equal(t, 1, fired)

	unsubscribe()
	n.Fire()
	assert.Equal(t, 1, fired)
}
