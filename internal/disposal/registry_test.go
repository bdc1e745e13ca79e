package disposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisposerRunsExactlyOnce(t *testing.T) {
	registry := NewRegistry()

	calls := 0
	d := registry.Register("thing", func() { calls++ })

	d.Dispose()
	d.Dispose()
	assert.Equal(t, 1, calls, "repeated Dispose must not re-run the cleanup")

	// Shutdown processing must not run it again either.
	registry.DisposeAll()
	assert.Equal(t, 1, calls)
}

func TestDisposeAllCoversUntriggeredDisposers(t *testing.T) {
	registry := NewRegistry()

	var order []string
	registry.Register("first", func() { order = append(order, "first") })
	registry.Register("second", func() { order = append(order, "second") })

	registry.DisposeAll()
	assert.Equal(t, []string{"second", "first"}, order, "most recent resources release first")

	// A second shutdown pass has nothing left to do.
	registry.DisposeAll()
	assert.Len(t, order, 2)
}

func TestRegisterNilCleanup(t *testing.T) {
	registry := NewRegistry()
	d := registry.Register("empty", nil)
	assert.NotPanics(t, func() { d.Dispose() })
}
