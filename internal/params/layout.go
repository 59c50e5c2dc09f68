// internal/params/layout.go
package params

import (
	"encoding/binary"
	"math"

	"github.com/Tubbz-alt/pabv-control/internal/checksum"
)

// Persisted record layout v1 (little-endian).
// These values define the storage format and MUST NOT be configurable.
//
//	0–35  nine float32 in Parameters field order
//	36    run state
//	37    run mode
//	38    layout version
//	39    reserved (zero)
//	40–41 checksum
const (
	RecordSize    = 42
	LayoutVersion = 1

	offsetRunState = 36
	offsetRunMode  = 37
	offsetVersion  = 38
	offsetChecksum = 40
)

// ChecksumSentinel occupies the checksum field while the checksum is computed.
const ChecksumSentinel uint16 = 0xBEEF

// Encode renders p into the fixed-size record. The checksum field is written verbatim.
// No IO. No side effects.
func Encode(p Parameters) []byte {
	buf := make([]byte, RecordSize)

	floats := [...]float32{
		p.RespRate,
		p.InhTime,
		p.PipMax,
		p.PipOffset,
		p.VolMax,
		p.VolFactor,
		p.VolMaxAdj,
		p.VolInThold,
		p.PeepMin,
	}
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}

	buf[offsetRunState] = byte(p.RunState)
	buf[offsetRunMode] = byte(p.RunMode)
	buf[offsetVersion] = LayoutVersion
	binary.LittleEndian.PutUint16(buf[offsetChecksum:], p.Checksum)

	return buf
}

// Decode parses a record without validating it.
// ok is false when the size or layout version does not match.
func Decode(buf []byte) (p Parameters, ok bool) {
	if len(buf) != RecordSize || buf[offsetVersion] != LayoutVersion {
		return Parameters{}, false
	}

	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}

	p = Parameters{
		RespRate:   f(0),
		InhTime:    f(1),
		PipMax:     f(2),
		PipOffset:  f(3),
		VolMax:     f(4),
		VolFactor:  f(5),
		VolMaxAdj:  f(6),
		VolInThold: f(7),
		PeepMin:    f(8),
		RunState:   RunState(buf[offsetRunState]),
		RunMode:    RunMode(buf[offsetRunMode]),
		Checksum:   binary.LittleEndian.Uint16(buf[offsetChecksum:]),
	}
	return p, true
}

// Checksum computes the record checksum of p with the checksum field masked
// to ChecksumSentinel.
func Checksum(p Parameters) uint16 {
	p.Checksum = ChecksumSentinel
	return checksum.Fletcher16(Encode(p))
}

// Seal returns p with its checksum field set to the computed value.
func Seal(p Parameters) Parameters {
	p.Checksum = Checksum(p)
	return p
}

// Valid reports whether the stored checksum matches the recomputed one.
func Valid(p Parameters) bool {
	return Checksum(p) == p.Checksum
}
