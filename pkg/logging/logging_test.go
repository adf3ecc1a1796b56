package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf)

	Debug("Test", "debug message")
	Info("Test", "info message")
	Warn("Test", "warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("expected warn message in output, got: %s", out)
	}
}

func TestErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Error("Test", errBoom, "operation failed")

	out := buf.String()
	if !strings.Contains(out, "boom") {
		t.Errorf("expected error cause in output, got: %s", out)
	}
	if !strings.Contains(out, "subsystem=Test") {
		t.Errorf("expected subsystem attribute in output, got: %s", out)
	}
}

var errBoom = errStr("boom")

type errStr string

func (e errStr) Error() string { return string(e) }

func TestRedact(t *testing.T) {
	if got := Redact(""); got != "<empty>" {
		t.Errorf("Redact(empty) = %q", got)
	}
	if got := Redact("abc"); got != "****" {
		t.Errorf("Redact(short) = %q", got)
	}
	if got := Redact("secret-token-value"); got != "secr..." {
		t.Errorf("Redact(long) = %q", got)
	}
	if strings.Contains(Redact("secret-token-value"), "token") {
		t.Error("redacted value leaks token material")
	}
}
