package logging

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   LogLevel
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"DEBUG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"", LevelInfo, false},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("LOG_LEVEL", "error")
	if got := levelFromEnv(); got != LevelError {
		t.Errorf("levelFromEnv() = %v, want %v", got, LevelError)
	}

	t.Setenv("DEBUG", "true")
	if got := levelFromEnv(); got != LevelDebug {
		t.Errorf("levelFromEnv() with DEBUG=true = %v, want %v", got, LevelDebug)
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := GetLevel()
	log.SetOutput(&buf)
	defer func() {
		log.SetOutput(os.Stderr)
		SetLevel(prev)
	}()

	SetLevel(LevelWarn)
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn should be suppressed, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn message") {
		t.Errorf("output missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error message") {
		t.Errorf("output missing error line: %q", out)
	}
	if IsDebugEnabled() {
		t.Error("IsDebugEnabled() = true at warn level")
	}
}
