// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Tubbz-alt/pabv-control/internal/config"
)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds the process logger.
// With a file configured, output goes to a rotating file and stderr.
// The returned closer releases the file and is never nil.
func New(c config.LogConfig) (*logrus.Logger, io.Closer, error) {
	l := logrus.New()

	level := c.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	l.SetLevel(lvl)

	switch c.Format {
	case "", FormatText:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("logging: unknown format %q", c.Format)
	}

	if c.File == "" {
		l.SetOutput(os.Stderr)
		return l, nopCloser{}, nil
	}

	rot := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
	}
	l.SetOutput(io.MultiWriter(os.Stderr, rot))
	return l, rot, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
