// Package registry stores definitions and the instances materialised from
// them, keyed by canonical identifier.
package registry

import (
	"strings"
	"sync"

	"github.com/km-arc/go-boot/framework/definition"
)

// objectPrefix keeps instance keys apart from definition keys.
const objectPrefix = "_id_default_"

// Registry is the in-memory definition table of one container.
type Registry struct {
	mu           sync.RWMutex
	store        map[string]any
	order        []string
	singletonIDs []string
	relation     *IdentifierRelation
}

// New creates a registry. Registries that share relation also share aliases.
func New(relation *IdentifierRelation) *Registry {
	if relation == nil {
		relation = NewIdentifierRelation()
	}
	return &Registry{
		store:    make(map[string]any),
		relation: relation,
	}
}

// Relation returns the alias table.
func (r *Registry) Relation() *IdentifierRelation { return r.relation }

// RegisterDefinition inserts def under id. Singleton ids are also appended to
// the ordered singleton list.
func (r *Registry) RegisterDefinition(id string, def *definition.Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.store[id]; !exists {
		r.order = append(r.order, id)
	}
	if def.IsSingletonScope() {
		r.singletonIDs = append(r.singletonIDs, id)
	}
	r.store[id] = def
}

// GetDefinition resolves id through the alias table and returns its
// definition, or nil.
func (r *Registry) GetDefinition(id string) *definition.Definition {
	id = r.relation.Canonical(id)
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, _ := r.store[id].(*definition.Definition)
	return def
}

// HasDefinition reports whether id, or the id it aliases, is registered.
func (r *Registry) HasDefinition(id string) bool {
	return r.GetDefinition(id) != nil
}

// RemoveDefinition drops the definition registered under id.
func (r *Registry) RemoveDefinition(id string) {
	id = r.relation.Canonical(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id].(*definition.Definition); !ok {
		return
	}
	delete(r.store, id)
	r.order = remove(r.order, id)
	r.singletonIDs = remove(r.singletonIDs, id)
}

// GetDefinitionByName returns every definition whose Name is name.
func (r *Registry) GetDefinitionByName(name string) []*definition.Definition {
	var out []*definition.Definition
	for _, def := range r.Definitions() {
		if def.Name == name {
			out = append(out, def)
		}
	}
	return out
}

// Identifiers lists definition ids in registration order.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions lists definitions in registration order.
func (r *Registry) Definitions() []*definition.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*definition.Definition, 0, len(r.order))
	for _, id := range r.order {
		if def, ok := r.store[id].(*definition.Definition); ok {
			out = append(out, def)
		}
	}
	return out
}

// SingletonDefinitionIDs lists singleton ids in registration order.
func (r *Registry) SingletonDefinitionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.singletonIDs...)
}

// Count returns the number of stored entries, definitions and objects.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store)
}

// ── Objects ───────────────────────────────────────────────────────────────────

// RegisterObject caches an instance under id.
func (r *Registry) RegisterObject(id string, obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[objectPrefix+id] = obj
}

// GetObject returns the instance cached under id or its canonical id.
func (r *Registry) GetObject(id string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if obj, ok := r.store[objectPrefix+id]; ok {
		return obj, true
	}
	obj, ok := r.store[objectPrefix+r.relation.Canonical(id)]
	return obj, ok
}

// HasObject reports whether an instance is cached for id.
func (r *Registry) HasObject(id string) bool {
	_, ok := r.GetObject(id)
	return ok
}

// ObjectIDs lists the ids that have a cached instance.
func (r *Registry) ObjectIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for k := range r.store {
		if id, ok := strings.CutPrefix(k, objectPrefix); ok {
			out = append(out, id)
		}
	}
	return out
}

// ClearAll drops every definition, instance and the singleton list.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = make(map[string]any)
	r.order = nil
	r.singletonIDs = nil
}

func remove(list []string, id string) []string {
	out := list[:0]
	for _, it := range list {
		if it != id {
			out = append(out, it)
		}
	}
	return out
}
