package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestGetReturnsSingleton(t *testing.T) {
	a := Get(DebugLevel)
	b := Get(ErrorLevel)
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
	if Nop() == nil || Nop().SugaredLogger == nil {
		t.Fatalf("Nop returned an unusable logger")
	}
}
