// Package metadata is the keyed table that declarations are written into and
// that binding reads back. Entries are addressed by (key, target, member),
// where target is a class type and member an optional field or method name.
package metadata

import (
	"reflect"
	"sync"
)

// GroupMode controls how Attach fills a grouped bucket.
type GroupMode string

const (
	// GroupOne keeps a single value per group, the last one attached wins.
	GroupOne GroupMode = "one"
	// GroupMulti appends every attached value to the group's list.
	GroupMulti GroupMode = "multi"
)

// ParentFunc returns the ancestor of a class type, or nil when it has none.
type ParentFunc func(t reflect.Type) reflect.Type

type entryKey struct {
	target reflect.Type
	key    string
	member string
}

// Store holds declaration metadata. The zero value is not usable, use New.
//
// A Store can be bound to another Store, after which every read and write is
// forwarded to that delegate. Child containers use this to share the parent's
// table instead of re-declaring everything.
type Store struct {
	mu       sync.RWMutex
	entries  map[entryKey]any
	modules  map[string][]any
	delegate *Store
	parentOf ParentFunc
}

// Option configures a Store.
type Option func(*Store)

// WithParentFunc overrides how ancestors are found for extended lookups.
func WithParentFunc(fn ParentFunc) Option {
	return func(s *Store) { s.parentOf = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:  make(map[entryKey]any),
		modules:  make(map[string][]any),
		parentOf: EmbeddedParent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Target normalises anything class-like into the struct type it names.
// It accepts a reflect.Type, a struct value or a pointer to one.
func Target(v any) reflect.Type {
	if v == nil {
		return nil
	}
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// EmbeddedParent treats the first embedded struct field as the ancestor.
func EmbeddedParent(t reflect.Type) reflect.Type {
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			return ft
		}
	}
	return nil
}

// ── Delegation ────────────────────────────────────────────────────────────────

// Bind makes delegate the backing table for s. Entries already held by s are
// copied over unless the delegate has its own value for the same address.
func (s *Store) Bind(delegate *Store) {
	if delegate == nil || delegate.backing() == s {
		return
	}
	s.mu.Lock()
	entries, modules := s.entries, s.modules
	s.entries = make(map[entryKey]any)
	s.modules = make(map[string][]any)
	s.delegate = delegate
	s.mu.Unlock()

	d := delegate.backing()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range entries {
		if _, ok := d.entries[k]; !ok {
			d.entries[k] = v
		}
	}
	for k, list := range modules {
		d.modules[k] = append(d.modules[k], list...)
	}
}

// Unbind detaches s from its delegate. s starts over empty.
func (s *Store) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = nil
}

// Bound reports whether s forwards to another store.
func (s *Store) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delegate != nil
}

func (s *Store) backing() *Store {
	cur := s
	for {
		cur.mu.RLock()
		next := cur.delegate
		cur.mu.RUnlock()
		if next == nil {
			return cur
		}
		cur = next
	}
}

// ── Writes ────────────────────────────────────────────────────────────────────

// Save stores data under (key, target, member), replacing any previous value.
func (s *Store) Save(key string, data any, target any, member ...string) {
	b := s.backing()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[address(key, target, member)] = data
}

// AttachOption configures Attach.
type AttachOption func(*attachOptions)

type attachOptions struct {
	groupBy string
	mode    GroupMode
}

// GroupBy attaches into the named bucket instead of the flat list.
func GroupBy(group string, mode GroupMode) AttachOption {
	return func(o *attachOptions) {
		o.groupBy = group
		o.mode = mode
	}
}

// Attach appends data to the list at (key, target, member). With GroupBy the
// value goes into a keyed bucket: GroupOne replaces it, GroupMulti appends.
func (s *Store) Attach(key string, data any, target any, member string, opts ...AttachOption) {
	var o attachOptions
	for _, opt := range opts {
		opt(&o)
	}

	b := s.backing()
	b.mu.Lock()
	defer b.mu.Unlock()

	addr := address(key, target, []string{member})
	if o.groupBy == "" {
		list, _ := b.entries[addr].([]any)
		b.entries[addr] = append(list, data)
		return
	}

	groups, ok := b.entries[addr].(map[string]any)
	if !ok {
		groups = make(map[string]any)
		b.entries[addr] = groups
	}
	if o.mode == GroupMulti {
		list, _ := groups[o.groupBy].([]any)
		groups[o.groupBy] = append(list, data)
		return
	}
	groups[o.groupBy] = data
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// Get returns the value at (key, target, member). An absent entry is created
// as an empty map and returned, so Get never yields nil.
func (s *Store) Get(key string, target any, member ...string) any {
	addr := address(key, target, member)
	b := s.backing()

	b.mu.RLock()
	v, ok := b.entries[addr]
	b.mu.RUnlock()
	if ok {
		return v
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.entries[addr]; ok {
		return v
	}
	empty := make(map[string]any)
	b.entries[addr] = empty
	return empty
}

// Lookup is Get without materialising absent entries.
func (s *Store) Lookup(key string, target any, member ...string) (any, bool) {
	b := s.backing()
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.entries[address(key, target, member)]
	return v, ok
}

// List returns the attached values at (key, target, member) in attach order.
func (s *Store) List(key string, target any, member ...string) []any {
	v, _ := s.Lookup(key, target, member...)
	list, _ := v.([]any)
	return append([]any(nil), list...)
}

// Groups returns the grouped buckets at (key, target, member).
func (s *Store) Groups(key string, target any, member ...string) map[string]any {
	v, _ := s.Lookup(key, target, member...)
	groups, _ := v.(map[string]any)
	out := make(map[string]any, len(groups))
	for k, g := range groups {
		out[k] = g
	}
	return out
}

// GetExtended returns class-level metadata for target merged with that of
// its ancestors. Ancestor values are applied first so the subclass wins.
// Maps are merged key by key, lists are concatenated.
func (s *Store) GetExtended(key string, target any) (any, bool) {
	t := Target(target)
	if t == nil {
		return nil, false
	}

	var inherited any
	var hasInherited bool
	if s.parentOf != nil {
		if parent := s.parentOf(t); parent != nil && parent != t {
			inherited, hasInherited = s.GetExtended(key, parent)
		}
	}

	own, hasOwn := s.Lookup(key, t)
	switch {
	case !hasOwn:
		return inherited, hasInherited
	case !hasInherited:
		return own, true
	}
	return merge(inherited, own), true
}

func merge(base, over any) any {
	switch o := over.(type) {
	case map[string]any:
		b, ok := base.(map[string]any)
		if !ok {
			return o
		}
		out := make(map[string]any, len(b)+len(o))
		for k, v := range b {
			out[k] = v
		}
		for k, v := range o {
			out[k] = v
		}
		return out
	case []any:
		b, ok := base.([]any)
		if !ok {
			return o
		}
		out := make([]any, 0, len(b)+len(o))
		out = append(out, b...)
		return append(out, o...)
	}
	return over
}

// ── Modules ───────────────────────────────────────────────────────────────────

// SaveModule records module under key, typically a class carrying a given
// declaration. Saving the same module twice keeps one entry.
func (s *Store) SaveModule(key string, module any) {
	b := s.backing()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.modules[key] {
		if m == module {
			return
		}
	}
	b.modules[key] = append(b.modules[key], module)
}

// ListModule returns the modules saved under key in save order.
func (s *Store) ListModule(key string) []any {
	b := s.backing()
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]any(nil), b.modules[key]...)
}

// ResetModule forgets every module saved under key.
func (s *Store) ResetModule(key string) {
	b := s.backing()
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.modules, key)
}

// Clear drops everything held by the backing table.
func (s *Store) Clear() {
	b := s.backing()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[entryKey]any)
	b.modules = make(map[string][]any)
}

func address(key string, target any, member []string) entryKey {
	k := entryKey{target: Target(target), key: key}
	if len(member) > 0 {
		k.member = member[0]
	}
	return k
}
