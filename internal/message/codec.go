// internal/message/codec.go
package message

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Payload layout (little-endian). Protocol-locked.
//
//	0   tag
//	1   status
//	2   int count
//	3   float count
//	4   string length
//	5–8 timestamp
//	9+  ints (4 bytes each), floats (float32, 4 bytes each), string bytes
const headerSize = 9

// Terminator ends every frame on the wire. It is outside the base64 alphabet.
var Terminator = []byte("---")

// Marshal encodes m into a binary payload.
func Marshal(m Message) ([]byte, error) {
	if len(m.Ints) > MaxInts || len(m.Floats) > MaxFloats || len(m.String) > MaxString {
		return nil, fmt.Errorf(
			"message: payload too large: ints=%d floats=%d string=%d",
			len(m.Ints), len(m.Floats), len(m.String),
		)
	}

	size := headerSize + 4*len(m.Ints) + 4*len(m.Floats) + len(m.String)
	buf := make([]byte, size)

	buf[0] = byte(m.Tag)
	buf[1] = byte(m.Status)
	buf[2] = byte(len(m.Ints))
	buf[3] = byte(len(m.Floats))
	buf[4] = byte(len(m.String))
	binary.LittleEndian.PutUint32(buf[5:9], m.Timestamp)

	off := headerSize
	for _, v := range m.Ints {
		binary.LittleEndian.PutUint32(buf[off:], v)
		off += 4
	}
	for _, f := range m.Floats {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	copy(buf[off:], m.String)

	return buf, nil
}

// Unmarshal decodes a binary payload.
func Unmarshal(buf []byte) (Message, error) {
	if len(buf) < headerSize {
		return Message{}, errors.New("message: short header")
	}

	nInt, nFloat, nStr := int(buf[2]), int(buf[3]), int(buf[4])
	if nInt > MaxInts || nFloat > MaxFloats || nStr > MaxString {
		return Message{}, fmt.Errorf(
			"message: counts out of range: ints=%d floats=%d string=%d",
			nInt, nFloat, nStr,
		)
	}
	want := headerSize + 4*nInt + 4*nFloat + nStr
	if len(buf) != want {
		return Message{}, fmt.Errorf("message: length mismatch: got=%d want=%d", len(buf), want)
	}

	m := Message{
		Tag:       Tag(buf[0]),
		Status:    Status(buf[1]),
		Timestamp: binary.LittleEndian.Uint32(buf[5:9]),
	}

	off := headerSize
	if nInt > 0 {
		m.Ints = make([]uint32, nInt)
		for i := range m.Ints {
			m.Ints[i] = binary.LittleEndian.Uint32(buf[off:])
			off += 4
		}
	}
	if nFloat > 0 {
		m.Floats = make([]float32, nFloat)
		for i := range m.Floats {
			m.Floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
		}
	}
	m.String = string(buf[off : off+nStr])

	return m, nil
}

// ---- framing ----

// EncodeFrame renders m as one wire frame: base64 payload followed by Terminator.
func EncodeFrame(m Message) ([]byte, error) {
	payload, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	n := base64.StdEncoding.EncodedLen(len(payload))
	frame := make([]byte, n, n+len(Terminator))
	base64.StdEncoding.Encode(frame, payload)
	return append(frame, Terminator...), nil
}

// DecodeFrame decodes one frame body (without Terminator).
// A frame that cannot be decoded yields a message with StatusErrDecode and
// the decode error, so a caller that only checks OK() drops it.
func DecodeFrame(body []byte) (Message, error) {
	body = bytes.TrimSpace(body)

	payload := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(payload, body)
	if err != nil {
		return Message{Status: StatusErrDecode}, fmt.Errorf("message: base64: %w", err)
	}

	m, err := Unmarshal(payload[:n])
	if err != nil {
		return Message{Status: StatusErrDecode}, err
	}
	return m, nil
}

// SplitFrames is a bufio.SplitFunc yielding frame bodies delimited by Terminator.
// Trailing bytes without a terminator at EOF are dropped.
func SplitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, Terminator); i >= 0 {
		return i + len(Terminator), data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}
