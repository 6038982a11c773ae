package container

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/definition"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the bindings of one feature.
//
// Register binds definitions. Boot runs after every provider is registered,
// so it may resolve anything.
//
//	type ZooProvider struct{ container.BaseProvider }
//
//	func (p *ZooProvider) Register(app *container.Container) error {
//	    annotation.Declare(app.Store(), Cat{}).Provide().Scope(definition.Singleton)
//	    return app.BindClass(Cat{})
//	}
//
//	func (p *ZooProvider) Boot(ctx context.Context, app *container.Container) error {
//	    _, err := app.Get(ctx, Cat{})
//	    return err
//	}
type ServiceProvider interface {
	// Register binds definitions into the container.
	// Do not resolve other bindings here, use Boot for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(ctx context.Context, app *Container) error

	// Provides lists the identifiers a deferred provider registers.
	Provides() []string

	// IsDeferred returns true if the provider should only be registered when
	// one of its Provides() identifiers is first resolved.
	IsDeferred() bool
}

// Namespaced providers record a namespace in the container. Classes they
// bind are also reachable as "namespace:name".
type Namespaced interface {
	Namespace() string
}

// Importer providers pull in other providers first.
type Importer interface {
	Imports() []ServiceProvider
}

// ObjectExporter providers register ready-made objects.
type ObjectExporter interface {
	ImportObjects() map[string]any
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op implementation of Boot, Provides and
// IsDeferred.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(context.Context, *Container) error { return nil }
func (p *BaseProvider) Provides() []string                     { return nil }
func (p *BaseProvider) IsDeferred() bool                       { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry loads providers into a container, handling imports,
// namespaces and deferred providers.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register loads provider. Imports are loaded first, each provider only once.
// If the registry is already booted the provider is booted right away.
func (r *ProviderRegistry) Register(ctx context.Context, provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true
	r.mu.Unlock()

	if imp, ok := provider.(Importer); ok {
		for _, dep := range imp.Imports() {
			if dep == nil {
				continue
			}
			if err := r.Register(ctx, dep); err != nil {
				return err
			}
		}
	}

	ns := MainNamespace
	if n, ok := provider.(Namespaced); ok && n.Namespace() != "" {
		ns = n.Namespace()
		r.app.AddNamespace(ns)
	}
	r.app.logger.Debug("load provider", zap.String("namespace", ns), zap.String("provider", fmt.Sprintf("%T", provider)))

	if exp, ok := provider.(ObjectExporter); ok {
		objs := exp.ImportObjects()
		keys := make([]string, 0, len(objs))
		for k := range objs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.app.BindObject(k, objs[k])
		}
	}

	if provider.IsDeferred() {
		return r.interceptDeferred(provider)
	}

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("container: register %T: %w", provider, err)
	}

	r.mu.Lock()
	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		return provider.Boot(ctx, r.app)
	}
	return nil
}

// interceptDeferred binds a placeholder for each deferred identifier. The
// first resolution removes the placeholders, registers the provider for real
// and resolves again.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	r.mu.Lock()
	for _, abstract := range provider.Provides() {
		r.deferred[abstract] = provider
	}
	r.mu.Unlock()

	for _, abstract := range provider.Provides() {
		abs := abstract
		err := r.app.BindClass(&definition.FunctionProvider{
			ID:    abs,
			Scope: definition.Prototype,
			Provide: func(ctx context.Context, _ definition.Locator, args []any) (any, error) {
				if err := r.loadDeferred(ctx, provider); err != nil {
					return nil, err
				}
				return r.app.resolve(ctx, abs, args, true, abs)
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ProviderRegistry) loadDeferred(ctx context.Context, provider ServiceProvider) error {
	r.mu.Lock()
	pending := false
	for _, abs := range provider.Provides() {
		if r.deferred[abs] == provider {
			pending = true
			delete(r.deferred, abs)
		}
	}
	booted := r.booted
	r.mu.Unlock()
	if !pending {
		return nil
	}

	relation := r.app.registry.Relation()
	for _, abs := range provider.Provides() {
		r.app.registry.RemoveDefinition(abs)
		relation.Remove(abs)
	}
	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("container: register deferred %T: %w", provider, err)
	}
	if booted {
		return provider.Boot(ctx, r.app)
	}
	return nil
}

// Boot calls Boot on every eager provider, in registration order.
func (r *ProviderRegistry) Boot(ctx context.Context) error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	eager := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range eager {
		if err := provider.Boot(ctx, r.app); err != nil {
			return fmt.Errorf("container: boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}
