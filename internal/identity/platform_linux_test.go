// internal/identity/platform_linux_test.go
package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineID(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad")
	good := filepath.Join(dir, "good")
	require.NoError(t, os.WriteFile(bad, []byte("xyz\n"), 0o644))
	require.NoError(t, os.WriteFile(good, []byte("0123456789abcdef0011223344556677\n"), 0o644))

	id, err := machineID{paths: []string{filepath.Join(dir, "missing"), bad, good}}.Read()
	require.NoError(t, err)
	assert.Equal(t, ID{0x01234567, 0x89abcdef, 0x00112233, 0x44556677}, id)

	_, err = machineID{paths: []string{bad}}.Read()
	assert.Error(t, err)
}
