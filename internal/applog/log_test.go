package applog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "UNKNOWN",
	}
	for level, want := range cases {
		assert.Equal(t, want, level.String())
	}
}

func TestFieldCreators(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 42}, Int("n", 42))
	assert.Equal(t, Field{Key: "n", Value: int64(7)}, Int64("n", 7))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(assertError("boom")))
	assert.Equal(t, Field{Key: "d", Value: "1s"}, Duration("d", time.Second))
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestNullLoggerDiscardsOutput(t *testing.T) {
	SetLogger(nil)
	defer SetLogger(nil)
	// Should not panic and should be the zero-cost path.
	Info("ignored", String("k", "v"))
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)
	logger.Info("phase complete", String("phase", "decrypt"), Int64("bytes", 1024))

	out := buf.String()
	assert.Contains(t, out, "phase complete")
	assert.Contains(t, out, "phase=decrypt")
	assert.Contains(t, out, "bytes=1024")
}

func TestWithFieldsIsPersistent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug).WithFields(String("op", "upgrade"))
	logger.Warn("skip-verify enabled")

	assert.True(t, strings.Contains(buf.String(), "op=upgrade"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)
	logger.Debug("should not appear")
	logger.Info("also should not appear")
	assert.Empty(t, buf.String())

	logger.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}
