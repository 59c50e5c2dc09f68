// internal/logging/logging_test.go
package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tubbz-alt/pabv-control/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	l, c, err := New(config.LogConfig{})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestNew_JSONDebug(t *testing.T) {
	l, c, err := New(config.LogConfig{Level: "debug", Format: FormatJSON})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestNew_Rejects(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(config.LogConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ambu.log")

	l, c, err := New(config.LogConfig{File: path, MaxSizeMB: 1, Format: FormatJSON})
	require.NoError(t, err)

	l.WithField("serial", 3).Info("config changed")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"config changed"`)
	assert.Contains(t, string(data), `"serial":3`)
}
