package launcher

import (
	"os"
	"strings"
)

// For mocking in tests.
var cgroupFile = "/proc/self/cgroup"
var osGeteuid = os.Geteuid

var containerMarkers = []string{"docker", "kubepods", "containerd", "lxc", "podman"}

// containerEnvironment reports whether we are running inside a container
// and, if so, whether the server must be allowed to run as root. Inside a
// container the server gets an explicit loopback bind so the port is
// reachable through the container's published ports.
func containerEnvironment() (inContainer, asRoot bool) {
	raw, err := os.ReadFile(cgroupFile)
	if err != nil {
		return false, false
	}
	content := strings.ToLower(string(raw))
	for _, marker := range containerMarkers {
		if strings.Contains(content, marker) {
			return true, osGeteuid() == 0
		}
	}
	return false, false
}
