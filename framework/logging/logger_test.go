package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/km-arc/go-boot/framework/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARNING", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
	}{
		{"console", config.Config{
			App: config.AppConfig{Name: "zoo", Env: "local"},
			Log: config.LogConfig{Level: "warn", Format: "console"},
		}},
		{"json", config.Config{
			App: config.AppConfig{Name: "zoo", Env: "production"},
			Log: config.LogConfig{Level: "warn", Format: "json"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(&tc.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if logger.Core().Enabled(zapcore.InfoLevel) {
				t.Error("info should be disabled at warn level")
			}
			if !logger.Core().Enabled(zapcore.WarnLevel) {
				t.Error("warn should be enabled at warn level")
			}
		})
	}
}
