package config_test

import (
	"os"
	"testing"

	"github.com/km-arc/go-boot/framework/config"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	t.Setenv(key, val) // automatically restored after test
}

// unsetEnv removes keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

var managedKeys = []string{
	"APP_NAME", "APP_ENV", "GO_ENV", "APP_DEBUG", "LOG_LEVEL", "LOG_FORMAT",
	"INSPECT_ADDR", "BOOT_MANIFEST", "MAIL_FROM",
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, managedKeys...)
	cfg := config.Load("testdata/missing.env")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"App.Name", cfg.App.Name, "GoBoot"},
		{"App.Env", cfg.App.Env, "local"},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "console"},
		{"Inspect.Addr", cfg.Inspect.Addr, ""},
		{"Manifest.Path", cfg.Manifest.Path, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
	if cfg.App.Debug {
		t.Error("expected App.Debug to default to false")
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	unsetEnv(t, managedKeys...)
	setEnv(t, "APP_NAME", "MyApp")
	setEnv(t, "APP_ENV", "production")
	setEnv(t, "LOG_LEVEL", "debug")
	setEnv(t, "BOOT_MANIFEST", "zoo.yaml")

	cfg := config.Load("testdata/missing.env")

	if cfg.App.Name != "MyApp" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "MyApp")
	}
	if cfg.App.Env != "production" {
		t.Errorf("App.Env: got %q want %q", cfg.App.Env, "production")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level: got %q want %q", cfg.Log.Level, "debug")
	}
	if cfg.Manifest.Path != "zoo.yaml" {
		t.Errorf("Manifest.Path: got %q want %q", cfg.Manifest.Path, "zoo.yaml")
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	unsetEnv(t, managedKeys...)
	cfg := config.Load("testdata/app.env")

	if cfg.App.Name != "Zoo" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "Zoo")
	}
	if cfg.App.Env != "production" {
		t.Errorf("App.Env: got %q want %q (prod alias)", cfg.App.Env, "production")
	}
	if cfg.Inspect.Addr != "127.0.0.1:9090" {
		t.Errorf("Inspect.Addr: got %q want %q", cfg.Inspect.Addr, "127.0.0.1:9090")
	}
}

func TestLoad_GoEnvFallback(t *testing.T) {
	unsetEnv(t, managedKeys...)
	setEnv(t, "GO_ENV", "unittest")

	cfg := config.Load("testdata/missing.env")
	if cfg.App.Env != "test" {
		t.Errorf("App.Env: got %q want %q", cfg.App.Env, "test")
	}
}

func TestLoad_AppDebugTrue(t *testing.T) {
	setEnv(t, "APP_DEBUG", "true")
	cfg := config.Load("testdata/missing.env")
	if !cfg.App.Debug {
		t.Error("expected App.Debug to be true")
	}
}

// ── Lookup ───────────────────────────────────────────────────────────────────

func TestLookup_TypedKeys(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Name: "Zoo", Debug: true}}

	if v, ok := cfg.Lookup("app.name"); !ok || v != "Zoo" {
		t.Errorf("app.name: got %v (%v), want Zoo", v, ok)
	}
	if v, ok := cfg.Lookup("app.debug"); !ok || v != true {
		t.Errorf("app.debug: got %v (%v), want true", v, ok)
	}
}

func TestLookup_FallsBackToEnv(t *testing.T) {
	setEnv(t, "MAIL_FROM", "keeper@zoo.test")
	unsetEnv(t, "MAIL_REPLY_TO")
	cfg := &config.Config{}

	if v, ok := cfg.Lookup("mail.from"); !ok || v != "keeper@zoo.test" {
		t.Errorf("mail.from: got %v (%v)", v, ok)
	}
	if _, ok := cfg.Lookup("mail.reply-to"); ok {
		t.Error("mail.reply-to should be missing")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"app.name", "APP_NAME"},
		{"mail.reply-to", "MAIL_REPLY_TO"},
		{"PLAIN", "PLAIN"},
	}
	for _, tt := range tests {
		if got := config.EnvKey(tt.in); got != tt.want {
			t.Errorf("EnvKey(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ── Environment ──────────────────────────────────────────────────────────────

func TestEnvironment_Aliases(t *testing.T) {
	tests := []struct {
		env    string
		want   string
		isDev  bool
		isProd bool
	}{
		{"local", "local", true, false},
		{"dev", "development", true, false},
		{"unittest", "test", true, false},
		{"PROD", "production", false, true},
		{"staging", "staging", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			e := config.NewEnvironment(&config.Config{App: config.AppConfig{Env: tt.env}})
			if e.Current() != tt.want {
				t.Errorf("Current: got %q, want %q", e.Current(), tt.want)
			}
			if e.IsDevelopment() != tt.isDev {
				t.Errorf("IsDevelopment: got %v, want %v", e.IsDevelopment(), tt.isDev)
			}
			if e.IsProduction() != tt.isProd {
				t.Errorf("IsProduction: got %v, want %v", e.IsProduction(), tt.isProd)
			}
		})
	}
}

// ── Get / GetInt / GetBool ───────────────────────────────────────────────────

func TestGet_ReturnsValue(t *testing.T) {
	setEnv(t, "CUSTOM_KEY", "hello")
	if got := config.Get("CUSTOM_KEY", "default"); got != "hello" {
		t.Errorf("got %q want %q", got, "hello")
	}
}

func TestGet_ReturnsFallback(t *testing.T) {
	unsetEnv(t, "MISSING_KEY")
	if got := config.Get("MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("got %q want %q", got, "fallback")
	}
}

func TestGetInt_ReturnsFallbackOnInvalid(t *testing.T) {
	setEnv(t, "SOME_INT", "notanint")
	if got := config.GetInt("SOME_INT", 99); got != 99 {
		t.Errorf("got %d want %d", got, 99)
	}
}

func TestGetBool_True(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		setEnv(t, "BOOL_KEY", val)
		if !config.GetBool("BOOL_KEY", false) {
			t.Errorf("expected true for %q", val)
		}
	}
}
