package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultConfig(t *testing.T) {
	logger := NewLogger(nil)
	require.NotNil(t, logger)
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	scoped := logger.WithField("device_serial", "DAABBCCDD")
	scoped.Infof("booted")

	out := buf.String()
	require.Contains(t, out, "booted")
	require.Contains(t, out, "device_serial=DAABBCCDD")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debugf("should not appear")
	logger.Infof("should not appear either")
	require.Empty(t, strings.TrimSpace(buf.String()))

	logger.Warnf("this should appear")
	require.Contains(t, buf.String(), "this should appear")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelInfo, Output: &buf, JSON: true})
	logger.Infof("hello")
	require.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	Default().Errorf("boom")
	require.Contains(t, buf.String(), "boom")
}
