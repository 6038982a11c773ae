package definition

import (
	"context"
	"fmt"
	"reflect"
)

// Creator turns a definition into an instance and runs its lifecycle hooks.
type Creator interface {
	Construct(ctx context.Context, l Locator, args []any) (any, error)
	Init(ctx context.Context, instance any) error
	Destroy(ctx context.Context, instance any) error
}

// Definition is the registered recipe for one identifier.
//
// Class definitions construct a *Target (through Constructor when set) and
// have their Properties injected afterwards. Function definitions call
// Provider and use its result as is.
type Definition struct {
	ID         string
	Name       string
	Namespace  string
	SrcPath    string
	CreateFrom CreateFrom
	Scope      Scope

	// Async definitions can only be resolved through the async path.
	Async bool
	// AllowDowngrade lets a singleton hold this definition even when it is
	// narrower scoped.
	AllowDowngrade bool

	Properties    *Properties
	DependsOn     []string
	InitMethod    string
	DestroyMethod string
	HandlerProps  []HandlerProp

	Target      reflect.Type
	Constructor Constructor
	Provider    ProvideFunc

	kind Kind
}

// NewClass creates a definition that builds *target.
func NewClass(id string, target reflect.Type) *Definition {
	return &Definition{
		ID:         id,
		Name:       target.Name(),
		Scope:      Request,
		CreateFrom: FromModule,
		Properties: NewProperties(),
		Target:     target,
		kind:       KindClass,
	}
}

// NewFunction creates a definition backed by a provider function.
func NewFunction(id string, provide ProvideFunc) *Definition {
	return &Definition{
		ID:         id,
		Name:       id,
		Scope:      Request,
		CreateFrom: FromModule,
		Properties: NewProperties(),
		Provider:   provide,
		kind:       KindFunction,
	}
}

// Kind reports whether d is a class or function definition.
func (d *Definition) Kind() Kind { return d.kind }

func (d *Definition) IsSingletonScope() bool { return d.Scope == Singleton }
func (d *Definition) IsRequestScope() bool   { return d.Scope == Request }
func (d *Definition) IsPrototypeScope() bool { return d.Scope == Prototype }

// HasDependsOn reports whether d declares hard dependencies.
func (d *Definition) HasDependsOn() bool { return len(d.DependsOn) > 0 }

// Creator returns the creator matching d's kind.
func (d *Definition) Creator() Creator {
	if d.kind == KindFunction {
		return functionCreator{d}
	}
	return classCreator{d}
}

// Clone returns a copy that can be modified without touching d.
func (d *Definition) Clone() *Definition {
	c := *d
	c.Properties = d.Properties.Clone()
	c.DependsOn = append([]string(nil), d.DependsOn...)
	c.HandlerProps = append([]HandlerProp(nil), d.HandlerProps...)
	return &c
}

// ── Creators ──────────────────────────────────────────────────────────────────

type classCreator struct{ def *Definition }

func (c classCreator) Construct(ctx context.Context, _ Locator, args []any) (any, error) {
	want := reflect.PointerTo(c.def.Target)
	if c.def.Constructor == nil {
		return reflect.New(c.def.Target).Interface(), nil
	}
	inst, err := c.def.Constructor(ctx, args)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("definition: constructor of %s returned nil", c.def.Name)
	}
	if got := reflect.TypeOf(inst); got != want {
		return nil, fmt.Errorf("definition: constructor of %s returned %s, want %s", c.def.Name, got, want)
	}
	return inst, nil
}

func (c classCreator) Init(ctx context.Context, instance any) error {
	return callHook(ctx, instance, c.def.InitMethod)
}

func (c classCreator) Destroy(ctx context.Context, instance any) error {
	return callHook(ctx, instance, c.def.DestroyMethod)
}

type functionCreator struct{ def *Definition }

func (f functionCreator) Construct(ctx context.Context, l Locator, args []any) (any, error) {
	if f.def.Provider == nil {
		return nil, fmt.Errorf("definition: %s has no provider function", f.def.ID)
	}
	return f.def.Provider(ctx, l, args)
}

func (f functionCreator) Init(ctx context.Context, instance any) error {
	return callHook(ctx, instance, f.def.InitMethod)
}

func (f functionCreator) Destroy(ctx context.Context, instance any) error {
	return callHook(ctx, instance, f.def.DestroyMethod)
}

// callHook invokes the named method on instance. An empty name is a no-op.
func callHook(ctx context.Context, instance any, name string) error {
	if name == "" || instance == nil {
		return nil
	}
	m := reflect.ValueOf(instance).MethodByName(name)
	if !m.IsValid() {
		return fmt.Errorf("definition: %T has no method %s", instance, name)
	}
	switch fn := m.Interface().(type) {
	case func():
		fn()
		return nil
	case func() error:
		return fn()
	case func(context.Context):
		fn(ctx)
		return nil
	case func(context.Context) error:
		return fn(ctx)
	}
	return fmt.Errorf("definition: method %s has unsupported signature %s", name, m.Type())
}
