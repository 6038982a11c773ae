package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/definition"
)

// ── stub providers ────────────────────────────────────────────────────────────

func constant(id string, v any) *definition.FunctionProvider {
	return &definition.FunctionProvider{
		ID:    id,
		Scope: definition.Singleton,
		Provide: func(context.Context, definition.Locator, []any) (any, error) {
			return v, nil
		},
	}
}

type eagerProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     int
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.BindClass(constant("eager-svc", "eager"))
}

func (p *eagerProvider) Boot(ctx context.Context, app *container.Container) error {
	p.bootCalled++
	return nil
}

// deferredProvider is lazy: only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     int
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.BindClass(constant("deferred-svc", "deferred-value"))
}

func (p *deferredProvider) Boot(ctx context.Context, app *container.Container) error {
	p.bootCalled++
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc"} }

// multiProvider registers multiple identifiers.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(app *container.Container) error {
	return app.BindClass([]any{constant("alpha", "α"), constant("beta", "β")})
}

// zooProvider is namespaced, imports multiProvider and exports an object.
type zooProvider struct {
	container.BaseProvider
	imported *multiProvider
}

func (p *zooProvider) Register(app *container.Container) error { return nil }
func (p *zooProvider) Namespace() string                       { return "zoo" }
func (p *zooProvider) Imports() []container.ServiceProvider {
	return []container.ServiceProvider{p.imported}
}
func (p *zooProvider) ImportObjects() map[string]any {
	return map[string]any{"keeper": "sam"}
}

type failingProvider struct {
	container.BaseProvider
}

var errBoom = errors.New("boom")

func (p *failingProvider) Register(app *container.Container) error { return errBoom }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	if err := reg.Register(context.Background(), p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if p.registerCalled != 1 {
		t.Error("Register() should be called immediately for eager providers")
	}
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	reg.Register(ctx, p)

	if p.bootCalled != 0 {
		t.Error("Boot() should NOT be called before registry.Boot()")
	}

	if err := reg.Boot(ctx); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if p.bootCalled != 1 {
		t.Error("Boot() should be called after registry.Boot()")
	}
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Register(ctx, &eagerProvider{})
	reg.Boot(ctx)

	got, err := c.Get(ctx, "eager-svc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "eager" {
		t.Errorf("eager-svc: got %v, want 'eager'", got)
	}
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	reg.Register(ctx, p)

	reg.Boot(ctx)
	reg.Boot(ctx) // second call should be no-op

	if !reg.Booted() {
		t.Error("Booted() should be true after Boot()")
	}
	if p.bootCalled != 1 {
		t.Errorf("Boot() called %d times, want 1", p.bootCalled)
	}
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if reg.Booted() {
		t.Error("Booted() should be false before Boot()")
	}
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	reg.Register(ctx, p)
	reg.Register(ctx, p) // second register of same instance

	if p.registerCalled != 1 {
		t.Errorf("provider registered %d times, want 1", p.registerCalled)
	}
	if n := len(reg.Providers()); n != 1 {
		t.Errorf("Providers(): got %d, want 1", n)
	}
}

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Boot(ctx)

	p := &eagerProvider{}
	reg.Register(ctx, p)

	if p.bootCalled != 1 {
		t.Error("provider registered after Boot() should be booted right away")
	}
}

func TestRegistry_RegisterError_Propagated(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	err := reg.Register(context.Background(), &failingProvider{})
	if !errors.Is(err, errBoom) {
		t.Errorf("got %v, want errBoom", err)
	}
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	reg.Register(ctx, p)
	reg.Boot(ctx)

	if p.registerCalled != 0 {
		t.Error("deferred provider Register() should not be called until Get()")
	}
	if !c.HasDefinition("deferred-svc") {
		t.Error("deferred identifier should already be resolvable")
	}
}

func TestRegistry_DeferredProvider_RegisteredOnFirstGet(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	reg.Register(ctx, p)
	reg.Boot(ctx)

	got, err := c.Get(ctx, "deferred-svc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "deferred-value" {
		t.Errorf("deferred-svc: got %v, want 'deferred-value'", got)
	}
	if p.registerCalled != 1 {
		t.Error("deferred provider Register() should be called on first Get()")
	}
	if p.bootCalled != 1 {
		t.Error("deferred provider Boot() should be called when registry already booted")
	}
}

func TestRegistry_DeferredProvider_RegisteredOnlyOnce(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	reg.Register(ctx, p)

	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, "deferred-svc"); err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
	}
	if p.registerCalled != 1 {
		t.Errorf("Register() called %d times, want 1", p.registerCalled)
	}
	if p.bootCalled != 0 {
		t.Error("Boot() should wait for registry.Boot()")
	}
}

// ── Imports, namespaces and objects ───────────────────────────────────────────

func TestRegistry_MultiProvider_AllResolvable(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)
	reg.Register(ctx, &multiProvider{})

	cases := []struct {
		id   string
		want string
	}{
		{"alpha", "α"},
		{"beta", "β"},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			got, err := c.Get(ctx, tc.id)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegistry_ImportsNamespaceAndObjects(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &zooProvider{imported: &multiProvider{}}
	if err := reg.Register(ctx, p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !c.HasNamespace("zoo") {
		t.Error("namespace 'zoo' should be recorded")
	}
	if !c.HasDefinition("alpha") {
		t.Error("imported provider should be registered")
	}
	got, err := c.Get(ctx, "keeper")
	if err != nil || got != "sam" {
		t.Errorf("keeper: got %v (%v), want 'sam'", got, err)
	}
	if n := len(reg.Providers()); n != 2 {
		t.Errorf("Providers(): got %d, want 2", n)
	}
}
