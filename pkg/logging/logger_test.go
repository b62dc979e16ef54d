package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"trace":   glog.Trace,
		"DEBUG":   glog.Debug,
		"info":    glog.Info,
		" warn ":  glog.Warn,
		"warning": glog.Warn,
		"error":   glog.Error,
		"unknown": glog.Info,
		"":        glog.Info,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJSONOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json"}, glog.WithWriter(&buf))

	logger.Debug("hidden")
	logger.WithContext(context.Background()).Info("transaction committed", "account_id", "acc1", "sequence", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "transaction committed" || entry["account_id"] != "acc1" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["logger"] != DefaultName {
		t.Fatalf("logger = %v, want %s", entry["logger"], DefaultName)
	}
}

func TestWithFieldsAndFatal(t *testing.T) {
	var buf bytes.Buffer
	exitCode := -1
	logger := New(Config{Level: "debug"},
		glog.WithWriter(&buf),
		glog.WithExitFunc(func(code int) { exitCode = code }),
	)

	logger.WithFields(map[string]any{"component": "ledger"}).Fatal("boom")

	if exitCode != 1 {
		t.Fatalf("exit code = %d, want 1", exitCode)
	}
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "msg=boom") {
		t.Fatalf("unexpected output %q", out)
	}
}
