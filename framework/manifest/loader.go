package manifest

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/annotation"
	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/metadata"
	"github.com/km-arc/go-boot/framework/validation"
)

var entryRules = validation.Rules{
	"id":       "required|alpha_dash",
	"class":    "required_without:provider|prohibited_with:provider",
	"provider": "required_without:class",
	"scope":    "nullable|in_ci:singleton,request,prototype",
	"init":     "nullable|identifier",
	"destroy":  "nullable|identifier",
}

// Loader binds manifests into one container and rejects two manifests
// declaring different classes under the same name.
type Loader struct {
	container *container.Container
	catalog   *Catalog

	mu   sync.Mutex
	seen map[string]origin
}

type origin struct {
	path string
	key  any
}

// NewLoader creates a loader binding into c with classes from catalog.
func NewLoader(c *container.Container, catalog *Catalog) *Loader {
	return &Loader{
		container: c,
		catalog:   catalog,
		seen:      make(map[string]origin),
	}
}

// LoadFile reads, validates and applies the manifest at path.
func (l *Loader) LoadFile(path string) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	return l.Apply(m)
}

// Validate checks every entry of m against the catalog. All problems are
// reported together in one *container.InvalidConfigError.
func (l *Loader) Validate(m *Manifest) error {
	var reasons []string
	ids := make(map[string]bool, len(m.Definitions))

	for i, e := range m.Definitions {
		label := fmt.Sprintf("definitions[%d]", i)
		if e.ID != "" {
			label += " " + e.ID
		}
		add := func(format string, args ...any) {
			reasons = append(reasons, label+": "+fmt.Sprintf(format, args...))
		}

		v := validation.Make(map[string]string{
			"id":       e.ID,
			"class":    e.Class,
			"provider": e.Provider,
			"scope":    e.Scope,
			"init":     e.Init,
			"destroy":  e.Destroy,
		}, entryRules)
		if v.Fails() {
			for _, msg := range v.Errors().Messages() {
				add("%s", msg)
			}
			continue
		}

		if ids[e.ID] {
			add("duplicate id")
		}
		ids[e.ID] = true

		if e.Provider != "" {
			if _, ok := l.catalog.LookupProvider(e.Provider); !ok {
				add("unknown provider %q", e.Provider)
			}
			if len(e.Properties) > 0 || len(e.DependsOn) > 0 || e.Init != "" || e.Destroy != "" {
				add("provider entries only take id, scope and async")
			}
			continue
		}

		class, ok := l.catalog.LookupClass(e.Class)
		if !ok {
			add("unknown class %q", e.Class)
			continue
		}
		ptr := reflect.PointerTo(class)
		for _, hook := range []string{e.Init, e.Destroy} {
			if hook == "" {
				continue
			}
			if _, ok := ptr.MethodByName(hook); !ok {
				add("%s has no method %s", e.Class, hook)
			}
		}
		for _, p := range e.Properties {
			if f, ok := class.FieldByName(p.Field); !ok || !f.IsExported() {
				add("%s has no exported field %s", e.Class, p.Field)
				continue
			}
			kind, name := p.Kind()
			if name == "" {
				add("property %s has an empty source", p.Field)
				continue
			}
			if kind == FromClass {
				if _, ok := l.catalog.LookupClass(name); !ok {
					add("property %s references unknown class %q", p.Field, name)
				}
			}
		}
	}

	if len(reasons) > 0 {
		return &container.InvalidConfigError{Source: m.Path, Reasons: reasons}
	}
	return nil
}

// Apply validates m and binds its objects and definitions.
func (l *Loader) Apply(m *Manifest) error {
	if err := l.Validate(m); err != nil {
		return err
	}
	c := l.container
	if m.Namespace != "" {
		c.AddNamespace(m.Namespace)
	}

	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.BindObject(k, m.Objects[k])
	}

	opts := []container.BindOption{
		container.WithSrcPath(m.Path),
		container.WithCreateFrom(definition.FromFile),
		container.WithNamespace(m.Namespace),
		container.WithBindHook(l.checkDuplicate),
	}
	for _, e := range m.Definitions {
		var err error
		if e.Provider != "" {
			err = l.bindProvider(e, opts)
		} else {
			err = l.bindClass(e, opts)
		}
		if err != nil {
			return errors.Wrapf(err, "manifest: bind %s from %s", e.ID, m.Path)
		}
	}

	c.Logger().Info("manifest loaded",
		zap.String("path", m.Path),
		zap.String("namespace", m.Namespace),
		zap.Int("definitions", len(m.Definitions)),
		zap.Int("objects", len(m.Objects)))
	return nil
}

func (l *Loader) bindClass(e Entry, opts []container.BindOption) error {
	class, _ := l.catalog.LookupClass(e.Class)
	b := annotation.Declare(l.container.Store(), class).Provide(e.ID)

	scope := definition.Request
	if e.Scope != "" {
		scope, _ = definition.ParseScope(e.Scope)
	}
	var scopeOpts []annotation.ScopeOption
	if e.AllowDowngrade {
		scopeOpts = append(scopeOpts, annotation.AllowDowngrade())
	}
	b.Scope(scope, scopeOpts...)

	if e.Init != "" {
		b.Init(e.Init)
	}
	if e.Destroy != "" {
		b.Destroy(e.Destroy)
	}
	if e.Async {
		b.Async()
	}
	if len(e.DependsOn) > 0 {
		b.DependsOn(e.DependsOn...)
	}
	for _, p := range e.Properties {
		kind, name := p.Kind()
		switch kind {
		case FromClass:
			ref, _ := l.catalog.LookupClass(name)
			b.Autowire(p.Field, annotation.ByClass(ref))
		case FromValue:
			b.Value(p.Field, name)
		default:
			b.Autowire(p.Field, annotation.ByID(name))
		}
	}
	return l.container.BindClass(class, opts...)
}

func (l *Loader) bindProvider(e Entry, opts []container.BindOption) error {
	fn, _ := l.catalog.LookupProvider(e.Provider)
	scope := definition.Request
	if e.Scope != "" {
		scope, _ = definition.ParseScope(e.Scope)
	}
	return l.container.BindClass(&definition.FunctionProvider{
		ID:      e.ID,
		Scope:   scope,
		Async:   e.Async,
		Provide: fn,
	}, opts...)
}

// checkDuplicate is the bind hook rejecting a second, different target
// under a name that is already taken.
func (l *Loader) checkDuplicate(target any, o *container.BindOptions) error {
	var name string
	var key any
	if fp, ok := target.(*definition.FunctionProvider); ok {
		name, key = fp.ID, fp.ID
	} else {
		class := metadata.Target(target)
		ident, _ := annotation.IdentityOf(l.container.Store(), class)
		name, key = ident.Name, class
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.seen[name]; ok && prev.key != key {
		return &container.DuplicateClassNameError{Name: name, ExistPath: prev.path, OtherPath: o.SrcPath}
	}
	l.seen[name] = origin{path: o.SrcPath, key: key}
	return nil
}
