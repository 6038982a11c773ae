// Package definition describes how the container builds objects: the scope
// an instance lives in, the references its fields are injected from, and the
// creator that constructs it.
package definition

import (
	"fmt"
	"strings"
)

// Scope is the lifetime policy of a definition.
type Scope string

const (
	// Singleton instances live as long as the owning container.
	Singleton Scope = "Singleton"
	// Request instances live as long as one request child container.
	Request Scope = "Request"
	// Prototype instances are built on every resolution.
	Prototype Scope = "Prototype"
)

// ParseScope accepts a scope name in any case.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "singleton":
		return Singleton, nil
	case "request":
		return Request, nil
	case "prototype":
		return Prototype, nil
	}
	return "", fmt.Errorf("definition: unknown scope %q", s)
}

func (s Scope) String() string { return string(s) }

// CreateFrom records where a definition was declared.
type CreateFrom string

const (
	FromFramework CreateFrom = "framework"
	FromFile      CreateFrom = "file"
	FromModule    CreateFrom = "module"
)

// Kind tells class definitions apart from function definitions.
type Kind int

const (
	KindClass Kind = iota
	KindFunction
)

func (k Kind) String() string {
	if k == KindFunction {
		return "function"
	}
	return "class"
}
