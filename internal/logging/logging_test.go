package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

	require.NotNil(t, handler)
	require.NotNil(t, handler.Handler)
	require.NotNil(t, handler.l)
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		level     slog.Level
		message   string
		attrs     []slog.Attr
		wantLevel string
		wantParts []string
	}{
		{
			name:      "info with attrs",
			level:     slog.LevelInfo,
			message:   "document ingested",
			attrs:     []slog.Attr{slog.Int64("document", 3), slog.Int("chunks", 5)},
			wantLevel: "INFO:",
			wantParts: []string{"document ingested", "document", "3", "chunks", "5"},
		},
		{
			name:      "warn with string attr",
			level:     slog.LevelWarn,
			message:   "ambiguous merge",
			attrs:     []slog.Attr{slog.String("surface", "Elara")},
			wantLevel: "WARN:",
			wantParts: []string{"ambiguous merge", "surface", "Elara"},
		},
		{
			name:      "error",
			level:     slog.LevelError,
			message:   "ingest failed",
			attrs:     []slog.Attr{slog.String("error", "no such file")},
			wantLevel: "ERROR:",
			wantParts: []string{"ingest failed", "no such file"},
		},
		{
			name:      "debug",
			level:     slog.LevelDebug,
			message:   "candidate scored",
			attrs:     []slog.Attr{slog.Float64("score", 0.75)},
			wantLevel: "DEBUG:",
			wantParts: []string{"candidate scored", "0.75"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
				SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
			})

			record := slog.NewRecord(time.Now(), tt.level, tt.message, 0)
			record.AddAttrs(tt.attrs...)

			require.NoError(t, handler.Handle(ctx, record))

			output := buf.String()
			assert.Contains(t, output, tt.wantLevel)
			for _, part := range tt.wantParts {
				assert.Contains(t, output, part)
			}
		})
	}
}

func TestPrettyHandlerEmptyAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "plain message", 0)
	require.NoError(t, handler.Handle(context.Background(), record))

	assert.Contains(t, buf.String(), "{}", "no attrs should render as an empty JSON object")
}

func TestPrettyHandlerTimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "time check", 0)
	require.NoError(t, handler.Handle(context.Background(), record))

	assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, buf.String())
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("visible")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"  info ", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}
