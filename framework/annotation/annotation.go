// Package annotation is the declaration side of the container. Classes are
// described once through a fluent builder; the container reads the result
// back when the class is bound.
//
//	store := metadata.New()
//	annotation.Declare(store, LogService{}).
//	    Provide("logService").
//	    Scope(definition.Singleton).
//	    Autowire("Cat", annotation.ByClass(Cat{})).
//	    Autowire("Dog", annotation.ByID("dog")).
//	    Value("Prefix", "app.name").
//	    Init("Setup")
package annotation

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/metadata"
)

// Metadata keys written by this package.
const (
	ProvideKey   = "annotation:provide"
	OptionsKey   = "annotation:object_definition"
	DependsOnKey = "annotation:depends_on"
	InjectKey    = "annotation:inject"
	CustomKey    = "annotation:custom_property"
)

const (
	optScope          = "scope"
	optAllowDowngrade = "allowDowngrade"
	optInit           = "initMethod"
	optDestroy        = "destroyMethod"
	optAsync          = "async"
	optConstructor    = "constructor"
)

// Builder declares one class.
type Builder struct {
	store  *metadata.Store
	target reflect.Type
}

// Declare starts a declaration for class, which may be a struct value, a
// pointer to one or its reflect.Type.
func Declare(store *metadata.Store, class any) *Builder {
	t := metadata.Target(class)
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("annotation: %v is not a struct type", class))
	}
	return &Builder{store: store, target: t}
}

// Type returns the declared class.
func (b *Builder) Type() reflect.Type { return b.target }

// Provide marks the class as bindable, optionally under an explicit id.
func (b *Builder) Provide(id ...string) *Builder {
	explicit := ""
	if len(id) > 0 {
		explicit = id[0]
	}
	provide(b.store, b.target, explicit)
	return b
}

// ScopeOption adjusts Scope.
type ScopeOption func(map[string]any)

// AllowDowngrade lets singletons reference this class even when its scope is
// narrower.
func AllowDowngrade() ScopeOption {
	return func(m map[string]any) { m[optAllowDowngrade] = true }
}

// Scope sets the lifetime of instances.
func (b *Builder) Scope(s definition.Scope, opts ...ScopeOption) *Builder {
	m := map[string]any{optScope: s}
	for _, opt := range opts {
		opt(m)
	}
	b.saveOptions(m)
	return b
}

// Init names the method called once the instance is wired.
func (b *Builder) Init(method string) *Builder {
	b.requireMethod(method)
	b.saveOptions(map[string]any{optInit: method})
	return b
}

// Destroy names the method called on container teardown.
func (b *Builder) Destroy(method string) *Builder {
	b.requireMethod(method)
	b.saveOptions(map[string]any{optDestroy: method})
	return b
}

// Async restricts resolution of the class to the async path.
func (b *Builder) Async() *Builder {
	b.saveOptions(map[string]any{optAsync: true})
	return b
}

// Constructor replaces plain allocation with fn.
func (b *Builder) Constructor(fn definition.Constructor) *Builder {
	b.saveOptions(map[string]any{optConstructor: fn})
	return b
}

// DependsOn lists identifiers resolved before the class is constructed.
func (b *Builder) DependsOn(ids ...string) *Builder {
	for _, id := range ids {
		b.store.Attach(DependsOnKey, id, b.target, "")
	}
	return b
}

// Autowire injects field from the container. Without a source the field is
// injected by its camel-cased name.
func (b *Builder) Autowire(field string, src ...Source) *Builder {
	b.requireField(field)
	s := Source{mode: definition.ByPropertyName}
	if len(src) > 0 {
		s = src[0]
	}
	s.field = field
	s.tag = definition.RefType
	b.store.Attach(InjectKey, s, b.target, "")
	return b
}

// Value injects field from the configuration value stored under key.
func (b *Builder) Value(field, key string) *Builder {
	b.requireField(field)
	b.store.Attach(InjectKey, Source{field: field, tag: definition.ValueType, id: key}, b.target, "")
	return b
}

// Handle hands field to the custom property handler registered for key.
func (b *Builder) Handle(field, key string, meta any) *Builder {
	b.requireField(field)
	b.store.Attach(CustomKey, definition.HandlerProp{Field: field, Key: key, Meta: meta}, b.target, "")
	return b
}

func (b *Builder) saveOptions(m map[string]any) {
	cur, _ := b.store.Lookup(OptionsKey, b.target)
	merged, _ := cur.(map[string]any)
	out := make(map[string]any, len(merged)+len(m))
	for k, v := range merged {
		out[k] = v
	}
	for k, v := range m {
		out[k] = v
	}
	b.store.Save(OptionsKey, out, b.target)
}

func (b *Builder) requireField(field string) {
	f, ok := b.target.FieldByName(field)
	if !ok || !f.IsExported() {
		panic(fmt.Sprintf("annotation: %s has no exported field %s", b.target, field))
	}
}

func (b *Builder) requireMethod(method string) {
	if _, ok := reflect.PointerTo(b.target).MethodByName(method); !ok {
		panic(fmt.Sprintf("annotation: *%s has no method %s", b.target, method))
	}
}

// ── Sources ───────────────────────────────────────────────────────────────────

// Source says where an autowired field comes from.
type Source struct {
	field string
	tag   string
	mode  definition.InjectMode
	id    string
	class reflect.Type
	args  []any
}

// ByID injects the definition bound under id.
func ByID(id string, args ...any) Source {
	return Source{mode: definition.ByIdentifier, id: id, args: args}
}

// ByClass injects the definition of class.
func ByClass(class any, args ...any) Source {
	return Source{mode: definition.ByClass, class: metadata.Target(class), args: args}
}

// ── Identity ──────────────────────────────────────────────────────────────────

func provide(store *metadata.Store, t reflect.Type, id string) definition.Identity {
	ident, ok := IdentityOf(store, t)
	if !ok {
		ident = definition.Identity{
			UUID:       uuid.NewString(),
			Name:       CamelCase(t.Name()),
			OriginName: t.Name(),
		}
	}
	if id != "" {
		ident.ID = id
	}
	store.Save(ProvideKey, ident, t)
	store.SaveModule(ProvideKey, t)
	return ident
}

// IdentityOf returns the identity saved by Provide.
func IdentityOf(store *metadata.Store, class any) (definition.Identity, bool) {
	v, ok := store.Lookup(ProvideKey, class)
	if !ok {
		return definition.Identity{}, false
	}
	ident, ok := v.(definition.Identity)
	return ident, ok
}

// EnsureIdentity returns the class identity, providing the class first when
// it was never declared.
func EnsureIdentity(store *metadata.Store, class any) definition.Identity {
	if ident, ok := IdentityOf(store, class); ok {
		return ident
	}
	return provide(store, metadata.Target(class), "")
}

// Declared lists every provided class in declaration order.
func Declared(store *metadata.Store) []reflect.Type {
	mods := store.ListModule(ProvideKey)
	out := make([]reflect.Type, 0, len(mods))
	for _, m := range mods {
		if t, ok := m.(reflect.Type); ok {
			out = append(out, t)
		}
	}
	return out
}
