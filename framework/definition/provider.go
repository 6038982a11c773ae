package definition

import "context"

// Identity is the naming metadata a declared class carries. Every field is a
// lookup alias of the same definition.
type Identity struct {
	// ID is the explicit identifier, empty when none was declared.
	ID string
	// UUID is generated once per class and is the canonical identifier.
	UUID string
	// Name is the camel-cased type name.
	Name string
	// OriginName is the Go type name as written.
	OriginName string
}

// Locator is the part of a container a provider function may use.
type Locator interface {
	Get(ctx context.Context, identifier any, args ...any) (any, error)
}

// ProvideFunc builds an object. It must pass ctx on to any Locator call so the
// resolution stays in the same session.
type ProvideFunc func(ctx context.Context, l Locator, args []any) (any, error)

// Constructor builds a class instance from explicit arguments. It must return
// a pointer to the definition's target type.
type Constructor func(ctx context.Context, args []any) (any, error)

// FunctionProvider declares a function-style definition.
//
//	clock := &definition.FunctionProvider{
//	    ID:    "clock",
//	    Scope: definition.Prototype,
//	    Provide: func(ctx context.Context, _ definition.Locator, _ []any) (any, error) {
//	        return time.Now(), nil
//	    },
//	}
type FunctionProvider struct {
	ID      string
	Scope   Scope
	Async   bool
	Provide ProvideFunc
}
