package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := WithSession(base, "test-session-123")
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "session_id=test-session-123") {
		t.Errorf("Expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected message in output, got: %s", output)
	}
}

func TestWithSession_NilLogger(t *testing.T) {
	if WithSession(nil, "test-session") != nil {
		t.Error("WithSession(nil, ...) should return nil")
	}
}

func TestWithCall(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	WithCall(base, "submit", "abc").Debug("call done", "status", 200)

	output := buf.String()
	for _, want := range []string{"op=submit", "session_id=abc", "status=200"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output, got: %s", want, output)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitialize_ComponentFilter(t *testing.T) {
	var buf bytes.Buffer
	if err := Initialize(Config{Level: "debug", Components: []string{ComponentChat}, Console: &buf}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Chat().Debug("from chat")
	Client().Debug("from client")

	output := buf.String()
	if !strings.Contains(output, "from chat") {
		t.Errorf("chat record missing: %s", output)
	}
	if strings.Contains(output, "from client") {
		t.Errorf("client record should be filtered: %s", output)
	}
}

func TestInitialize_SplitLevels(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "kyr.log")
	err := Initialize(Config{
		Level:     "warn",
		FileLevel: "debug",
		FileLog:   &FileLogConfig{Path: path},
		Console:   &console,
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	Nav().Debug("quiet detail")
	Nav().Warn("loud problem")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if strings.Contains(console.String(), "quiet detail") {
		t.Errorf("debug record leaked to console: %s", console.String())
	}
	if !strings.Contains(console.String(), "loud problem") {
		t.Errorf("warn record missing from console: %s", console.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"quiet detail", "loud problem", "component=nav"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q: %s", want, data)
		}
	}
}

func TestInitialize_BadLevel(t *testing.T) {
	if err := Initialize(Config{Level: "chatty"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
