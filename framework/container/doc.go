// Package container is the IoC runtime: it binds definitions, resolves them
// into wired objects and tears them down again.
//
// # Lifecycle
//
//  1. Declare: annotation.Declare(c.Store(), Cat{}).Provide().Scope(definition.Singleton)
//  2. Bind: c.BindClass(Cat{}), or load a ServiceProvider
//  3. Resolve: c.Get(ctx, "cat"), c.GetAsync(ctx, "db").Await(ctx)
//  4. Stop: c.Stop(ctx) runs every destroy hook once
//
// # Identifiers
//
// A class is bound under a generated uuid. The explicit id given to Provide,
// the camel-cased type name, the Go type name and "namespace:name" are all
// aliases of it, so these resolve to the same singleton:
//
//	c.Get(ctx, "logService")
//	c.Get(ctx, "LogService")
//	c.Get(ctx, LogService{})
//
// # Scopes
//
//	definition.Singleton  one instance per application container
//	definition.Request    one instance per request child (the default)
//	definition.Prototype  a new instance on every resolution
//
// A singleton may not hold a request scoped dependency unless that
// dependency was declared with annotation.AllowDowngrade.
//
// # Request children
//
//	child := c.CreateChild(r)
//	handler, err := child.Get(ctx, "handler")
//
// A child builds request scoped definitions itself and sends everything else
// to its parent, so singletons stay shared.
//
// # Circular references
//
// Construction allocates an instance before its properties are injected. A
// property that leads back to an object still being built receives that
// allocated pointer, which is complete by the time the outer Get returns.
// Plain classes are allocated before DependsOn runs, so a DependsOn cycle
// also receives the typed pointer. Only constructors and provider functions
// have nothing to hand out yet; their cycles receive a *Deferred, which fits
// fields of type any.
//
// When a build fails after its pointer escaped into a cycle, the next
// successful build of the same id reuses or fills that pointer.
//
// # Service providers
//
//	type ZooProvider struct{ container.BaseProvider }
//
//	func (p *ZooProvider) Register(app *container.Container) error {
//	    return app.BindClass([]any{Cat{}, Dog{}})
//	}
//
//	reg := container.NewProviderRegistry(c)
//	reg.Register(ctx, &ZooProvider{})
//	reg.Boot(ctx)
//
// # Deferred providers
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//
// Register is only called when "heavy" is first resolved.
package container
