// internal/channel/channel_test.go
package channel

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tubbz-alt/pabv-control/internal/message"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// waitRead polls a non-blocking channel until a message arrives.
func waitRead(t *testing.T, ch Channel) message.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m, ok := ch.Read(); ok {
			return m
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no message within deadline")
	return message.Message{}
}

func TestStream_ReadIsNonBlocking(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	s := NewStream("primary", local, 4, quietLogger())
	defer s.Close()

	_, ok := s.Read()
	assert.False(t, ok)
}

func TestStream_ReceivesFramesInOrder(t *testing.T) {
	local, remote := net.Pipe()

	s := NewStream("display", local, 4, quietLogger())
	defer s.Close()

	first, err := message.EncodeFrame(message.NewData(message.TagParamFloat, 1, []float32{22}, []uint32{1}))
	require.NoError(t, err)
	second, err := message.EncodeFrame(message.NewData(message.TagParamSet, 2, nil, []uint32{0x20}))
	require.NoError(t, err)

	go func() {
		remote.Write(append(first, second...))
	}()

	m1 := waitRead(t, s)
	m2 := waitRead(t, s)

	assert.Equal(t, uint32(1), m1.Timestamp)
	assert.Equal(t, []float32{22}, m1.Floats)
	assert.Equal(t, message.TagParamSet, m2.Tag)
	remote.Close()
}

func TestStream_GarbageFrameArrivesAsErrDecode(t *testing.T) {
	local, remote := net.Pipe()

	s := NewStream("primary", local, 4, quietLogger())
	defer s.Close()

	go func() {
		remote.Write([]byte("%%%%---"))
	}()

	m := waitRead(t, s)
	assert.Equal(t, message.StatusErrDecode, m.Status)
	remote.Close()
}

func TestStream_OversizedNoiseDoesNotStopReader(t *testing.T) {
	local, remote := net.Pipe()

	s := NewStream("primary", local, 4, quietLogger())
	defer s.Close()

	frame, err := message.EncodeFrame(message.NewData(message.TagParamFloat, 9, []float32{30}, []uint32{1}))
	require.NoError(t, err)

	go func() {
		remote.Write(bytes.Repeat([]byte("A"), MaxFrame+904))
		remote.Write([]byte("---"))
		remote.Write(frame)
	}()

	noise := waitRead(t, s)
	assert.Equal(t, message.StatusErrDecode, noise.Status)

	m := waitRead(t, s)
	assert.Equal(t, message.TagParamFloat, m.Tag)
	assert.Equal(t, uint32(9), m.Timestamp)

	select {
	case <-s.Done():
		t.Fatalf("reader stopped: %v", s.err)
	default:
	}
	remote.Close()
}

func TestFrameSplitter_TerminatorAcrossSkip(t *testing.T) {
	f := &frameSplitter{max: 8}

	// Eight bytes of noise ending in the first two terminator bytes.
	adv, tok, err := f.split([]byte("AAAAAA--"), false)
	require.NoError(t, err)
	assert.Nil(t, tok)
	assert.Equal(t, 6, adv, "a partial terminator is kept")

	adv, tok, err = f.split([]byte("---QUJD"), false)
	require.NoError(t, err)
	assert.Equal(t, 3, adv)
	assert.NotNil(t, tok)
	assert.Empty(t, tok)
	assert.True(t, f.oversized)

	_, tok, _ = f.split([]byte("QUJD---"), false)
	assert.Equal(t, []byte("QUJD"), tok)
	assert.False(t, f.oversized)
}

func TestStream_SendWritesOneFrame(t *testing.T) {
	local, remote := net.Pipe()

	s := NewStream("primary", local, 4, quietLogger())
	defer s.Close()

	want := message.NewString(message.TagVersion, 10, "test-build")

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 256)
		var acc []byte
		for !bytes.HasSuffix(acc, message.Terminator) {
			n, err := remote.Read(buf)
			if err != nil {
				break
			}
			acc = append(acc, buf[:n]...)
		}
		got <- acc
	}()

	require.NoError(t, s.Send(want))

	frame := <-got
	m, err := message.DecodeFrame(bytes.TrimSuffix(frame, message.Terminator))
	require.NoError(t, err)
	assert.Equal(t, want, m)
	remote.Close()
}

type failingWriter struct {
	io.Reader
}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("line down") }
func (failingWriter) Close() error              { return nil }

func TestStream_SendErrorIsReturned(t *testing.T) {
	s := NewStream("primary", failingWriter{Reader: bytes.NewReader(nil)}, 1, quietLogger())
	<-s.Done()

	err := s.Send(message.NewString(message.TagVersion, 0, "x"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line down")
}

func TestNull(t *testing.T) {
	var ch Channel = Null{}

	_, ok := ch.Read()
	assert.False(t, ok)
	assert.NoError(t, ch.Send(message.Message{Tag: message.TagConfig}))
}
