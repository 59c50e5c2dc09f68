// internal/channel/channel.go
package channel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Tubbz-alt/pabv-control/internal/message"
)

// Channel is one message link. Read never blocks: ok is false when nothing
// arrived since the last call.
type Channel interface {
	Read() (m message.Message, ok bool)
	Send(m message.Message) error
}

// Stream carries framed messages over a byte stream (serial port, pipe).
// A reader goroutine splits and decodes frames into a bounded queue;
// when the queue is full the newest frame is dropped.
type Stream struct {
	name string
	rw   io.ReadWriteCloser
	in   chan message.Message

	wmu sync.Mutex
	log logrus.FieldLogger

	warn    *rate.Limiter
	dropped int

	done chan struct{}
	err  error
}

// NewStream starts reading frames from rw. queue bounds the inbound backlog.
func NewStream(name string, rw io.ReadWriteCloser, queue int, log logrus.FieldLogger) *Stream {
	if queue <= 0 {
		queue = 8
	}
	s := &Stream{
		name: name,
		rw:   rw,
		in:   make(chan message.Message, queue),
		log:  log.WithField("channel", name),
		warn: rate.NewLimiter(rate.Every(5*time.Second), 1),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	defer close(s.done)

	split := &frameSplitter{max: MaxFrame}
	sc := bufio.NewScanner(s.rw)
	sc.Buffer(make([]byte, 0, 512), 2*MaxFrame)
	sc.Split(split.split)

	for sc.Scan() {
		var m message.Message
		switch body := sc.Bytes(); {
		case split.oversized:
			m = message.Message{Status: message.StatusErrDecode}
			if s.warn.Allow() {
				s.log.WithField("max", MaxFrame).Warn("oversized frame skipped")
			}
		case len(body) == 0:
			continue
		default:
			var err error
			if m, err = message.DecodeFrame(body); err != nil {
				s.log.WithError(err).Debug("undecodable frame")
			}
		}

		select {
		case s.in <- m:
		default:
			s.dropped++
			if s.warn.Allow() {
				s.log.WithField("dropped", s.dropped).Warn("inbound queue full, dropping frames")
				s.dropped = 0
			}
		}
	}

	s.err = sc.Err()
	if s.err != nil && !errors.Is(s.err, io.EOF) {
		s.log.WithError(s.err).Error("channel read loop stopped")
	}
}

// MaxFrame bounds a frame body. Longer runs without a terminator are line noise.
const MaxFrame = 4096

// frameSplitter is message.SplitFrames with a size cap. A run of MaxFrame
// bytes without a terminator is dropped up to the next terminator and ends
// as one empty token with oversized set.
type frameSplitter struct {
	max       int
	skipping  bool
	oversized bool
}

func (f *frameSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	f.oversized = false

	advance, token, err := message.SplitFrames(data, atEOF)
	switch {
	case err != nil:
		return advance, token, err
	case token != nil && f.skipping:
		f.skipping = false
		f.oversized = true
		return advance, data[:0], nil
	case advance > 0 || token != nil:
		return advance, token, nil
	case len(data) < f.max:
		return 0, nil, nil
	}

	// Keep a tail that may hold the start of a terminator.
	f.skipping = true
	return len(data) - (len(message.Terminator) - 1), nil, nil
}

// Read returns the oldest queued message, if any.
func (s *Stream) Read() (message.Message, bool) {
	select {
	case m := <-s.in:
		return m, true
	default:
		return message.Message{}, false
	}
}

// Send writes one frame.
func (s *Stream) Send(m message.Message) error {
	frame, err := message.EncodeFrame(m)
	if err != nil {
		return fmt.Errorf("channel %s: %w", s.name, err)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	for len(frame) > 0 {
		n, err := s.rw.Write(frame)
		if err != nil {
			return fmt.Errorf("channel %s: write: %w", s.name, err)
		}
		frame = frame[n:]
	}
	return nil
}

// Close closes the underlying stream and waits for the reader to stop.
func (s *Stream) Close() error {
	err := s.rw.Close()
	<-s.done
	return err
}

// Done is closed once the reader goroutine exits.
func (s *Stream) Done() <-chan struct{} { return s.done }

var _ Channel = (*Stream)(nil)

// Null is a disabled link: nothing arrives and sends are discarded.
type Null struct{}

func (Null) Read() (message.Message, bool) { return message.Message{}, false }
func (Null) Send(message.Message) error    { return nil }
