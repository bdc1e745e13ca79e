package launcher

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hochshi/vscode-python/internal/disposal"
	"github.com/hochshi/vscode-python/pkg/logging"
)

// deleteAttempts bounds how often the disposer retries removing the working
// directory. A slow-to-exit child can hold the directory briefly after kill.
const deleteAttempts = 10

// For mocking in tests.
var osMkdirTemp = os.MkdirTemp
var osRemoveAll = os.RemoveAll

// TemporaryDirectory is a per-launch working directory owned by exactly one
// launch attempt. Its disposer is registered so shutdown covers it even when
// the attempt itself never gets the chance.
type TemporaryDirectory struct {
	Path     string
	Disposer *disposal.Disposer
}

// newTemporaryDirectory creates a unique working directory and registers its
// cleanup with the disposal registry.
func newTemporaryDirectory(registry *disposal.Registry) (*TemporaryDirectory, error) {
	path, err := osMkdirTemp("", "jupyterd-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, err
	}

	tmp := &TemporaryDirectory{Path: path}
	tmp.Disposer = registry.Register("tempdir "+path, func() {
		for attempt := 0; attempt < deleteAttempts; attempt++ {
			if err := osRemoveAll(path); err == nil {
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
		// Give up silently; the OS temp cleaner gets it eventually.
		logging.Debug(logSubsystem, "could not remove %s after %d attempts", path, deleteAttempts)
	})
	return tmp, nil
}
