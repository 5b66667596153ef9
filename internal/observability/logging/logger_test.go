package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONOutputCarriesServiceTag(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "reco-api", "info", "json")

	logger.Info("startup", "port", "8080")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not a JSON line: %v\n%s", err, buf.String())
	}
	if entry["service"] != "reco-api" {
		t.Fatalf("expected service tag, got %v", entry["service"])
	}
	if entry["msg"] != "startup" || entry["port"] != "8080" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "reco-worker", "info", "text")

	logger.Info("startup")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected text output, got %s", out)
	}
	if !strings.Contains(out, "service=reco-worker") {
		t.Fatalf("expected service attribute in text output, got %s", out)
	}
}

func TestNewUnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "reco-api", "info", "xml")

	logger.Info("startup")

	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON fallback, got %s", buf.String())
	}
}

func TestParseLevelFiltering(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"  WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.level); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}

	var buf bytes.Buffer
	New(&buf, "reco-api", "warn", "json").Info("ignored")
	if buf.Len() != 0 {
		t.Fatalf("info entry leaked through warn level: %s", buf.String())
	}
}
