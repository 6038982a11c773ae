package container

import (
	"context"

	"github.com/km-arc/go-boot/framework/definition"
)

// Resolver turns a managed reference into a value. Resolvers are looked up
// by the reference's Type tag.
type Resolver interface {
	Type() string
	Resolve(ctx context.Context, ref *definition.ManagedReference, originName string) (any, error)
	ResolveAsync(ctx context.Context, ref *definition.ManagedReference, originName string) (any, error)
}

// RefResolver resolves "ref" references through the owning container.
// originName is the field being injected and names the dependency in
// not-found errors.
type RefResolver struct {
	container *Container
}

func (r *RefResolver) Type() string { return definition.RefType }

func (r *RefResolver) Resolve(ctx context.Context, ref *definition.ManagedReference, originName string) (any, error) {
	return r.container.resolve(ctx, ref.Name, ref.Args, false, originName)
}

func (r *RefResolver) ResolveAsync(ctx context.Context, ref *definition.ManagedReference, originName string) (any, error) {
	return r.container.resolve(ctx, ref.Name, ref.Args, true, originName)
}

// ValueSource supplies configuration values by key.
type ValueSource interface {
	Lookup(key string) (any, bool)
}

// ValueSourceFunc adapts a function to ValueSource.
type ValueSourceFunc func(key string) (any, bool)

func (f ValueSourceFunc) Lookup(key string) (any, bool) { return f(key) }

// ValueResolver resolves "value" references from a ValueSource.
type ValueResolver struct {
	Source ValueSource
}

func (r *ValueResolver) Type() string { return definition.ValueType }

func (r *ValueResolver) Resolve(_ context.Context, ref *definition.ManagedReference, _ string) (any, error) {
	v, ok := r.Source.Lookup(ref.Name)
	if !ok {
		return nil, &DefinitionNotFoundError{Identifier: ref.Name}
	}
	return v, nil
}

func (r *ValueResolver) ResolveAsync(ctx context.Context, ref *definition.ManagedReference, originName string) (any, error) {
	return r.Resolve(ctx, ref, originName)
}
