package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWritesJSONToOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Encoding: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := ContextWithRequestID(context.Background(), "req-1")
	WithRequestID(ctx, log).Debug("task created", TaskFields("create", "7")...)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	for key, want := range map[string]string{
		"msg":        "task created",
		"level":      "debug",
		"request_id": "req-1",
		"op":         "create",
		"task_id":    "7",
	} {
		if line[key] != want {
			t.Errorf("%s = %v, want %q", key, line[key], want)
		}
	}
	if _, ok := line["timestamp"]; !ok {
		t.Error("timestamp missing")
	}
}

func TestNewBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "loud", Encoding: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "INFO") {
		t.Fatalf("console output should carry a plain level: %q", out)
	}
}

func TestTaskFieldsSkipsEmpty(t *testing.T) {
	if got := len(TaskFields("", "")); got != 0 {
		t.Fatalf("len = %d", got)
	}
	if got := len(TaskFields("fetch", "")); got != 1 {
		t.Fatalf("len = %d", got)
	}
}

func TestRequestIDWithoutValue(t *testing.T) {
	if id := RequestID(context.Background()); id != "" {
		t.Fatalf("id = %q", id)
	}
	if WithRequestID(context.Background(), nil) != nil {
		t.Fatal("nil logger should stay nil")
	}
}
