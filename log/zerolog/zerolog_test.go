package zerolog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/cacheable"
)

func TestLoggerWritesFieldsAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.Warn("set rejected", cacheable.Fields{"key": "single:user:1"})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if line["level"] != "warn" || line["message"] != "set rejected" {
		t.Fatalf("unexpected line: %v", line)
	}
	if line["key"] != "single:user:1" || line["component"] != "cacheable" {
		t.Fatalf("fields missing: %v", line)
	}
}

func TestLoggerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))
	l.Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
}
