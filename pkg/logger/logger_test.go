package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"error":   LevelError,
		"verbose": LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	if strings.Contains(out.String(), "hidden") {
		t.Fatalf("debug line written at info level: %q", out.String())
	}
	if !strings.Contains(out.String(), "shown 2") {
		t.Fatalf("expected info line, got %q", out.String())
	}

	l.SetLevel(LevelError)
	out.Reset()
	l.Info("quiet")
	l.Error("loud")
	if out.Len() != 0 {
		t.Fatalf("expected no info output at error level, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "loud") {
		t.Fatalf("expected error line, got %q", errOut.String())
	}

	l.SetLevel(LevelDebug)
	l.Debug("visible")
	if !strings.Contains(out.String(), "DEBUG: ") {
		t.Fatalf("expected debug prefix, got %q", out.String())
	}
}

func TestLinesCarryCallerFile(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWithWriters(&out, &errOut)
	l.SetLevel(LevelDebug)

	l.Info("direct info")
	l.Debug("direct debug")
	l.Error("direct error")

	saved := GlobalLogger
	GlobalLogger = l
	defer func() { GlobalLogger = saved }()
	Info("global info")
	Debug("global debug")
	Error("global error")

	lines := strings.Split(strings.TrimSpace(out.String()+errOut.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s%s", len(lines), out.String(), errOut.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, "logger_test.go:") {
			t.Fatalf("line does not name the calling file: %q", line)
		}
	}
}
