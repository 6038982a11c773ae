package config

import "strings"

// NormalizeEnv lower-cases an environment name and expands the short
// aliases "prod", "dev" and "unittest".
func NormalizeEnv(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "prod":
		return "production"
	case "dev":
		return "development"
	case "unittest", "testing":
		return "test"
	}
	return name
}

// Environment answers questions about the environment the app runs in.
type Environment struct {
	current string
}

// NewEnvironment reads the environment from cfg.
func NewEnvironment(cfg *Config) *Environment {
	return &Environment{current: NormalizeEnv(cfg.App.Env)}
}

// Current returns the normalized environment name.
func (e *Environment) Current() string { return e.current }

// Is reports whether the current environment is one of names.
func (e *Environment) Is(names ...string) bool {
	for _, n := range names {
		if NormalizeEnv(n) == e.current {
			return true
		}
	}
	return false
}

// IsDevelopment is true for local, development and test.
func (e *Environment) IsDevelopment() bool {
	return e.Is("local", "development", "test")
}

func (e *Environment) IsProduction() bool { return e.current == "production" }
