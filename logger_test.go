package fdmqtt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel(t *testing.T) {
	t.Run("string representation", func(t *testing.T) {
		assert.Equal(t, "DEBUG", LogLevelDebug.String())
		assert.Equal(t, "INFO", LogLevelInfo.String())
		assert.Equal(t, "WARN", LogLevelWarn.String())
		assert.Equal(t, "ERROR", LogLevelError.String())
		assert.Equal(t, "NONE", LogLevelNone.String())
		assert.Equal(t, "UNKNOWN", LogLevel(99).String())
	})

	t.Run("level ordering", func(t *testing.T) {
		assert.True(t, LogLevelDebug < LogLevelInfo)
		assert.True(t, LogLevelInfo < LogLevelWarn)
		assert.True(t, LogLevelWarn < LogLevelError)
		assert.True(t, LogLevelError < LogLevelNone)
	})
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()

	t.Run("all methods are no-ops", func(_ *testing.T) {
		logger.Debug("test", nil)
		logger.Info("test", nil)
		logger.Warn("test", nil)
		logger.Error("test", nil)
	})

	t.Run("with fields returns same logger", func(t *testing.T) {
		newLogger := logger.WithFields(LogFields{"key": "value"})
		assert.Equal(t, logger, newLogger)
	})

	t.Run("level operations", func(t *testing.T) {
		assert.Equal(t, LogLevelNone, logger.Level())
		logger.SetLevel(LogLevelDebug)
		assert.Equal(t, LogLevelDebug, logger.Level())
	})
}

func TestStdLogger(t *testing.T) {
	t.Run("debug level logs all", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		logger.Debug("debug message", nil)
		logger.Info("info message", nil)
		logger.Warn("warn message", nil)
		logger.Error("error message", nil)

		output := buf.String()
		assert.Contains(t, output, "[DEBUG] debug message")
		assert.Contains(t, output, "[INFO] info message")
		assert.Contains(t, output, "[WARN] warn message")
		assert.Contains(t, output, "[ERROR] error message")
	})

	t.Run("warn level skips debug and info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelWarn)

		logger.Debug("debug message", nil)
		logger.Info("info message", nil)
		logger.Warn("warn message", nil)

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warn message")
	})

	t.Run("none level logs nothing", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelNone)

		logger.Error("error message", nil)

		assert.Empty(t, buf.String())
	})

	t.Run("logs with fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		logger.Info("message", LogFields{
			LogFieldConnectionID: "abc-123",
			LogFieldMessageType:  "CONNECT",
		})

		output := buf.String()
		assert.Contains(t, output, "message")
		assert.Contains(t, output, "connection_id")
		assert.Contains(t, output, "abc-123")
	})

	t.Run("with fields preserves parent fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewStdLogger(buf, LogLevelDebug)

		parent := logger.WithFields(LogFields{LogFieldConnectionID: "abc-123"})
		child := parent.WithFields(LogFields{LogFieldClientID: "device-1"})

		child.Info("message", nil)

		output := buf.String()
		assert.Contains(t, output, "abc-123")
		assert.Contains(t, output, "device-1")
	})

	t.Run("nil writer defaults to stderr", func(t *testing.T) {
		logger := NewStdLogger(nil, LogLevelDebug)
		assert.NotNil(t, logger)
	})
}

func TestLogFieldConstants(t *testing.T) {
	assert.Equal(t, "connection_id", LogFieldConnectionID)
	assert.Equal(t, "client_id", LogFieldClientID)
	assert.Equal(t, "message_type", LogFieldMessageType)
	assert.Equal(t, "remaining_length", LogFieldRemainingLength)
	assert.Equal(t, "keep_alive", LogFieldKeepAlive)
	assert.Equal(t, "error", LogFieldError)
	assert.Equal(t, "remote_addr", LogFieldRemoteAddr)
	assert.Equal(t, "duration", LogFieldDuration)
}

func TestLoggerInterface(t *testing.T) {
	t.Run("NoOpLogger implements Logger", func(_ *testing.T) {
		var _ Logger = NewNoOpLogger()
	})

	t.Run("StdLogger implements Logger", func(_ *testing.T) {
		var _ Logger = NewStdLogger(nil, LogLevelDebug)
	})
}
