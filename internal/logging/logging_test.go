package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("transport")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("peer pinned", "addr", "127.0.0.1:9000")

	out := buf.String()
	if !strings.Contains(out, "msg=\"peer pinned\"") {
		t.Fatalf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=transport") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "addr=127.0.0.1:9000") {
		t.Fatalf("expected addr field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("capture")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	logger := L("encode")

	var buf bytes.Buffer
	Init("json", "info", &buf)

	logger.Info("keyframe forced", "sequence", 42)

	out := buf.String()
	if !strings.Contains(out, `"component":"encode"`) {
		t.Fatalf("expected json component field, got: %s", out)
	}
}
