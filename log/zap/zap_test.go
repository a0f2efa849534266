package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/cacheable"
)

func TestLoggerMapsLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("hit", cacheable.Fields{"ns": "user"})
	l.Error("flush failed", cacheable.Fields{"err": errors.New("boom")})

	all := logs.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if all[0].Level != zapcore.DebugLevel || all[0].ContextMap()["ns"] != "user" {
		t.Fatalf("debug entry: %+v", all[0])
	}
	if all[1].Level != zapcore.ErrorLevel || all[1].ContextMap()["err"] != "boom" {
		t.Fatalf("error entry: %+v", all[1].ContextMap())
	}
}
