package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &buf})
	ctx := context.Background()

	logger.Info(ctx, "hidden message")
	logger.Warn(ctx, "visible message", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "key=value")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf}).
		WithOperation(OpDownloadAsset).
		WithURL("http://x/a.jpg")

	logger.Debug(context.Background(), "downloading")

	out := buf.String()
	assert.Contains(t, out, "operation=download_asset")
	assert.Contains(t, out, "url=http://x/a.jpg")
}

func TestNopAndNilLoggers(t *testing.T) {
	ctx := context.Background()

	var nilLogger *Logger
	assert.NotPanics(t, func() {
		nilLogger.Info(ctx, "ignored")
		nilLogger.With("k", "v").Error(ctx, "ignored")
		LogOperation(ctx, nilLogger, OpPrune, time.Second, nil)
	})

	nop := NewNop()
	assert.NotPanics(t, func() {
		nop.WithOperation(OpPrune).Warn(ctx, "ignored")
	})
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Output: &buf})
	ctx := context.Background()

	LogOperation(ctx, logger, OpSaveManifest, 5*time.Millisecond, errors.New("disk full"), "path", "/m.json")
	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "path=/m.json")

	buf.Reset()
	LogPrune(ctx, logger, 3, 1, time.Millisecond)
	assert.Contains(t, buf.String(), "files_removed=3")
	assert.Contains(t, buf.String(), "files_failed=1")
}
