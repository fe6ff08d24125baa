package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("debug", "json", &buf)

	logger.Debug("client connected", slog.String("session_id", "abc"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "client connected" {
		t.Errorf("msg = %v, want client connected", rec["msg"])
	}
	if rec["session_id"] != "abc" {
		t.Errorf("session_id = %v, want abc", rec["session_id"])
	}
}

func TestSetupLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestForSession(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ForSession(base, "sess-1").Info("frame dropped")

	if !strings.Contains(buf.String(), "session_id=sess-1") {
		t.Errorf("session attribute missing: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("FromContext should return the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should fall back to the default logger")
	}
}
