// internal/identity/platform_linux.go
package identity

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// machineIDPaths are tried in order.
var machineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// Platform returns the provider backed by the host's machine id.
// Only linux targets define it; other targets fail to build when it is referenced.
func Platform() Provider { return machineID{paths: machineIDPaths} }

type machineID struct {
	paths []string
}

func (m machineID) Read() (ID, error) {
	var lastErr error
	for _, path := range m.paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil || len(b) != 16 {
			lastErr = fmt.Errorf("identity platform: malformed machine id in %s", path)
			continue
		}
		return FromBytes(b), nil
	}
	return ID{}, fmt.Errorf("identity platform: %w", lastErr)
}
