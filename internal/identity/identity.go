// internal/identity/identity.go
package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ID is the opaque device identifier. Echoed verbatim, never interpreted.
type ID [4]uint32

// Provider reads the device identifier once at startup.
type Provider interface {
	Read() (ID, error)
}

// Words returns the identifier as a slice for message payloads.
func (id ID) Words() []uint32 {
	return []uint32{id[0], id[1], id[2], id[3]}
}

func (id ID) String() string {
	return fmt.Sprintf("%08x-%08x-%08x-%08x", id[0], id[1], id[2], id[3])
}

// FromBytes packs up to 16 bytes big-endian into an ID. Missing bytes are zero.
func FromBytes(b []byte) ID {
	var buf [16]byte
	copy(buf[:], b)

	var id ID
	for i := range id {
		id[i] = binary.BigEndian.Uint32(buf[i*4:])
	}
	return id
}

// ---- static ----

// Static returns a fixed identifier.
type Static ID

func (s Static) Read() (ID, error) { return ID(s), nil }

// ---- uuid file ----

// FileProvider keeps a random UUID in a file and derives the ID from it.
// The file is created on first use.
type FileProvider struct {
	Path string
}

func (p FileProvider) Read() (ID, error) {
	if p.Path == "" {
		return ID{}, errors.New("identity file: path required")
	}

	raw, err := os.ReadFile(p.Path)
	switch {
	case err == nil:
		u, perr := uuid.Parse(strings.TrimSpace(string(raw)))
		if perr != nil {
			return ID{}, fmt.Errorf("identity file: parse %s: %w", p.Path, perr)
		}
		return FromBytes(u[:]), nil

	case errors.Is(err, os.ErrNotExist):
		u := uuid.New()
		if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
			return ID{}, fmt.Errorf("identity file: mkdir: %w", err)
		}
		if err := os.WriteFile(p.Path, []byte(u.String()+"\n"), 0o644); err != nil {
			return ID{}, fmt.Errorf("identity file: write: %w", err)
		}
		return FromBytes(u[:]), nil

	default:
		return ID{}, fmt.Errorf("identity file: read: %w", err)
	}
}
