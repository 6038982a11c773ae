package manifest

import (
	"reflect"
	"sort"
	"sync"

	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/metadata"
)

// Catalog maps the class and provider names a manifest may reference to
// code. Go cannot look types up by name, so every class a manifest uses must
// be registered here first.
//
//	catalog := manifest.NewCatalog().
//	    Class("Cat", zoo.Cat{}).
//	    Provider("clock", zoo.Clock)
type Catalog struct {
	mu        sync.RWMutex
	classes   map[string]reflect.Type
	providers map[string]definition.ProvideFunc
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		classes:   make(map[string]reflect.Type),
		providers: make(map[string]definition.ProvideFunc),
	}
}

// Class registers class under name.
func (c *Catalog) Class(name string, class any) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classes[name] = metadata.Target(class)
	return c
}

// Provider registers a provider function under name.
func (c *Catalog) Provider(name string, fn definition.ProvideFunc) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = fn
	return c
}

// LookupClass returns the class registered under name.
func (c *Catalog) LookupClass(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.classes[name]
	return t, ok
}

// LookupProvider returns the provider function registered under name.
func (c *Catalog) LookupProvider(name string) (definition.ProvideFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.providers[name]
	return fn, ok
}

// ClassNames lists registered class names, sorted.
func (c *Catalog) ClassNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.classes))
	for name := range c.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
