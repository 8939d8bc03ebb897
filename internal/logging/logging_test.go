package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriter_ConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "warn"

	logger := NewWithWriter(cfg, &buf)
	logger.Info().Msg("hidden")
	tickerLogger := WithTicker(logger, "JEPI")
	tickerLogger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "JEPI") {
		t.Errorf("expected warn message with ticker, got %q", out)
	}
}

func TestNewWithWriter_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "yieldrank.log")
	cfg := DefaultConfig()
	cfg.Console = false
	cfg.File = true
	cfg.FilePath = path

	logger := NewWithWriter(cfg, &bytes.Buffer{})
	logger.Info().Str("phase", "process").Msg("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"phase":"process"`) {
		t.Errorf("expected JSON line in file, got %q", string(data))
	}
}
