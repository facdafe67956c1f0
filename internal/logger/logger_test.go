package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// TestParseLevel verifies level names are accepted case-insensitively
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{"Info", LevelInfo, false},
		{"warning", LevelWarning, false},
		{"WARN", LevelWarning, false},
		{" error ", LevelError, false},
		{"fatal", LevelFatal, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestSetup_InvalidLevel verifies Setup rejects an unknown level
func TestSetup_InvalidLevel(t *testing.T) {
	if err := Setup(context.Background(), Options{Level: "loud"}); err == nil {
		t.Error("Expected error for unknown level, got nil")
	}
}

// TestWarnRejectedEvaluation verifies counters move even when output is sampled away
func TestWarnRejectedEvaluation(t *testing.T) {
	var buf bytes.Buffer
	setupJSONLogging(&buf)
	defer setupJSONLogging(nilWriter{})

	sampleRate.Store(1)
	rejected := RejectedEvaluations.Load()
	warnings := TotalWarnings.Load()

	WarnRejectedEvaluation("translation", errors.New("bad expectation"))

	if RejectedEvaluations.Load() != rejected+1 {
		t.Error("Expected RejectedEvaluations to increment")
	}
	if TotalWarnings.Load() != warnings+1 {
		t.Error("Expected TotalWarnings to increment")
	}
	if !strings.Contains(buf.String(), `"category":"translation"`) {
		t.Errorf("Expected log line with category, got: %s", buf.String())
	}
}

// TestCounters verifies the snapshot carries every counter
func TestCounters(t *testing.T) {
	snapshot := Counters()
	for _, key := range []string{"errors", "warnings", "http4xx", "http5xx", "rejectedEvaluations", "generationFailures", "storeFailures"} {
		if _, ok := snapshot[key]; !ok {
			t.Errorf("Expected counter %q in snapshot", key)
		}
	}
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }
