// internal/channel/serial.go
package channel

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"
	"github.com/sirupsen/logrus"
)

// SerialConfig is the minimal port config for one link.
type SerialConfig struct {
	Name    string
	Port    string
	Baud    int
	Timeout time.Duration
	Queue   int
}

// OpenSerial opens a serial port and wraps it in a Stream.
func OpenSerial(cfg SerialConfig, log logrus.FieldLogger) (*Stream, error) {
	if cfg.Port == "" {
		return nil, errors.New("channel serial: port required")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = 57600
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 100 * time.Millisecond
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.Baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("channel serial: open %s: %w", cfg.Port, err)
	}

	log.WithFields(logrus.Fields{
		"channel": cfg.Name,
		"port":    cfg.Port,
		"baud":    cfg.Baud,
	}).Info("serial channel open")

	return NewStream(cfg.Name, &idlePort{port: port}, cfg.Queue, log), nil
}

// idlePort turns read timeouts on an idle line into retries, so the frame
// scanner only stops when the port is closed or fails.
type idlePort struct {
	port   io.ReadWriteCloser
	closed atomic.Bool
}

func (p *idlePort) Read(b []byte) (int, error) {
	for {
		n, err := p.port.Read(b)
		if errors.Is(err, serial.ErrTimeout) && n == 0 {
			if p.closed.Load() {
				return 0, io.EOF
			}
			continue
		}
		return n, err
	}
}

func (p *idlePort) Write(b []byte) (int, error) { return p.port.Write(b) }

func (p *idlePort) Close() error {
	p.closed.Store(true)
	return p.port.Close()
}
