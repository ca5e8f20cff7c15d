package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriter_Formats(t *testing.T) {
	var jsonBuf, textBuf bytes.Buffer
	NewWithWriter(&jsonBuf, "info", "json").Info("hello", "k", 1)
	NewWithWriter(&textBuf, "info", "text").Info("hello", "k", 1)

	if !strings.HasPrefix(jsonBuf.String(), "{") {
		t.Fatalf("expected JSON output, got %q", jsonBuf.String())
	}
	if !strings.Contains(textBuf.String(), "msg=hello") {
		t.Fatalf("expected text output, got %q", textBuf.String())
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "json")
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	NewWithWriter(&buf, "nonsense", "json").Info("defaulted")
	if !strings.Contains(buf.String(), "defaulted") {
		t.Fatalf("expected info level fallback, got %q", buf.String())
	}
}
