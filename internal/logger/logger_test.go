package logger

import "testing"

func TestNew(t *testing.T) {
	for _, cfg := range []Config{{}, {Level: "debug", Format: "console"}, {Level: "warn", Format: "json"}} {
		l, err := New(cfg)
		if err != nil {
			t.Fatalf("%+v: %v", cfg, err)
		}
		l.Info("logger ready")
	}
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
