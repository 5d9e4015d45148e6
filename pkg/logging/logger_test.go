package logging

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerSeverityFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Severity: WARN,
		Outputs:  []Output{&ConsoleOutput{writer: &buf}},
	})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{&ConsoleOutput{writer: &buf}},
		DefaultFields: map[string]interface{}{"component": "governor"},
	})

	logger.Info(context.Background(), "hello")
	assert.Contains(t, buf.String(), "component=governor")
}

func TestFileOutput(t *testing.T) {
	path := t.TempDir() + "/engine.log"
	out, err := NewFileOutput(path)
	require.NoError(t, err)

	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{out}})
	logger.Info(context.Background(), "scheduling cycle complete")
	require.NoError(t, out.Sync())
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[INFO] scheduling cycle complete"))
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, ERROR, ParseSeverity("ERROR"))
	assert.Equal(t, INFO, ParseSeverity("bogus"))
}
