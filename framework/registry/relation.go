package registry

import (
	"sync"

	"github.com/km-arc/go-boot/framework/definition"
)

// IdentifierRelation maps every alias of a definition to its canonical id.
type IdentifierRelation struct {
	mu        sync.RWMutex
	relations map[string]string
}

// NewIdentifierRelation creates an empty alias table.
func NewIdentifierRelation() *IdentifierRelation {
	return &IdentifierRelation{relations: make(map[string]string)}
}

// SaveClassRelation points the explicit id, the camel-cased name, the Go type
// name and, with a namespace, "namespace:name" at the class uuid.
func (r *IdentifierRelation) SaveClassRelation(ident definition.Identity, namespace string) {
	if ident.UUID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations[ident.UUID] = ident.UUID
	if ident.ID != "" {
		r.relations[ident.ID] = ident.UUID
	}
	if ident.Name != "" {
		r.relations[ident.Name] = ident.UUID
	}
	if ident.OriginName != "" {
		if _, taken := r.relations[ident.OriginName]; !taken {
			r.relations[ident.OriginName] = ident.UUID
		}
	}
	if namespace != "" && ident.Name != "" {
		r.relations[namespace+":"+ident.Name] = ident.UUID
	}
}

// SaveFunctionRelation points a provider's declared id at its generated id.
func (r *IdentifierRelation) SaveFunctionRelation(id, uuid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relations[uuid] = uuid
	r.relations[id] = uuid
}

// HasRelation reports whether id is a known alias.
func (r *IdentifierRelation) HasRelation(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.relations[id]
	return ok
}

// GetRelation returns the canonical id for id.
func (r *IdentifierRelation) GetRelation(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.relations[id]
	return canonical, ok
}

// Canonical is GetRelation falling back to id itself.
func (r *IdentifierRelation) Canonical(id string) string {
	if canonical, ok := r.GetRelation(id); ok {
		return canonical
	}
	return id
}

// Remove forgets the alias id.
func (r *IdentifierRelation) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.relations, id)
}

// All returns a copy of the alias table.
func (r *IdentifierRelation) All() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.relations))
	for k, v := range r.relations {
		out[k] = v
	}
	return out
}
