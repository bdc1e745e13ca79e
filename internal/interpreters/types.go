// Package interpreters models Python interpreters and the discovery service
// the engine queries for them. The engine only ever reads interpreter data;
// discovery is owned here and exposed behind the Locator interface.
package interpreters

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed interpreter version.
type Version struct {
	Major int
	Minor int
	Patch int
	Raw   string
}

func (v Version) String() string {
	if v.Raw != "" {
		return v.Raw
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses strings like "3.11.4" or "3.11.4rc1". Trailing
// non-numeric noise on the patch component is ignored; missing components
// default to zero.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	v := Version{Raw: s}
	parts := strings.SplitN(s, ".", 3)
	if len(parts) == 0 || parts[0] == "" {
		return v, fmt.Errorf("empty version string")
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return v, fmt.Errorf("invalid version %q: %w", s, err)
	}
	v.Major = major
	if len(parts) > 1 {
		if minor, err := strconv.Atoi(parts[1]); err == nil {
			v.Minor = minor
		}
	}
	if len(parts) > 2 {
		v.Patch = leadingInt(parts[2])
	}
	return v, nil
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

// Interpreter is a discovered Python installation. Read-only to the engine.
type Interpreter struct {
	Path    string
	Version Version
}

func (i Interpreter) String() string {
	return fmt.Sprintf("%s (%s)", i.Path, i.Version)
}
