package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
// It also serves "value" references through Lookup.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Inspect  InspectConfig
	Manifest ManifestConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | development | test | production
	Debug bool
}

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // console | json
}

type InspectConfig struct {
	Addr string // empty disables the inspect server
}

type ManifestConfig struct {
	Path string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoBoot"),
			Env:   NormalizeEnv(env("APP_ENV", env("GO_ENV", "local"))),
			Debug: envBool("APP_DEBUG", false),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "console"),
		},
		Inspect: InspectConfig{
			Addr: env("INSPECT_ADDR", ""),
		},
		Manifest: ManifestConfig{
			Path: env("BOOT_MANIFEST", ""),
		},
	}
}

// Lookup returns the value stored under a dotted key such as "app.name".
// Keys without a typed field fall back to the matching env var, so
// "mail.from" reads MAIL_FROM.
func (c *Config) Lookup(key string) (any, bool) {
	switch key {
	case "app.name":
		return c.App.Name, true
	case "app.env":
		return c.App.Env, true
	case "app.debug":
		return c.App.Debug, true
	case "log.level":
		return c.Log.Level, true
	case "log.format":
		return c.Log.Format, true
	case "inspect.addr":
		return c.Inspect.Addr, true
	case "manifest.path":
		return c.Manifest.Path, true
	}
	return os.LookupEnv(EnvKey(key))
}

// EnvKey turns "mail.from" into "MAIL_FROM".
func EnvKey(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
