package definition

// Resolver tags understood by the container out of the box.
const (
	// RefType resolves a reference through the container's Get.
	RefType = "ref"
	// ValueType resolves a reference from a configuration value source.
	ValueType = "value"
)

// InjectMode records how a reference's target identifier was derived.
type InjectMode int

const (
	// ByIdentifier uses an explicit identifier.
	ByIdentifier InjectMode = iota
	// ByClass uses the canonical identifier of a declared class.
	ByClass
	// ByPropertyName uses the camel-cased field name.
	ByPropertyName
)

func (m InjectMode) String() string {
	switch m {
	case ByClass:
		return "class"
	case ByPropertyName:
		return "propertyName"
	}
	return "identifier"
}

// ManagedReference is a dependency that has not been resolved yet.
type ManagedReference struct {
	// Type is the tag of the resolver that produces the value.
	Type string
	// Name is the identifier (or value key) the resolver looks up.
	Name string
	Mode InjectMode
	// Args are forwarded to the dependency's creator.
	Args []any
}

// Property pairs a struct field with the reference injected into it.
type Property struct {
	Field string
	Ref   *ManagedReference
}

// Properties is an insertion-ordered field → reference mapping.
type Properties struct {
	items []Property
	index map[string]int
}

// NewProperties creates an empty set.
func NewProperties() *Properties {
	return &Properties{index: make(map[string]int)}
}

// Set adds or replaces the reference for field. A replaced field keeps its
// original position.
func (p *Properties) Set(field string, ref *ManagedReference) {
	if i, ok := p.index[field]; ok {
		p.items[i].Ref = ref
		return
	}
	p.index[field] = len(p.items)
	p.items = append(p.items, Property{Field: field, Ref: ref})
}

// Get returns the reference declared for field.
func (p *Properties) Get(field string) (*ManagedReference, bool) {
	if p == nil {
		return nil, false
	}
	i, ok := p.index[field]
	if !ok {
		return nil, false
	}
	return p.items[i].Ref, true
}

// Len returns the number of declared fields.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Items returns the declared properties in declaration order.
func (p *Properties) Items() []Property {
	if p == nil {
		return nil
	}
	return append([]Property(nil), p.items...)
}

// Clone returns an independent copy.
func (p *Properties) Clone() *Properties {
	out := NewProperties()
	for _, it := range p.Items() {
		if it.Ref == nil {
			out.Set(it.Field, nil)
			continue
		}
		ref := *it.Ref
		ref.Args = append([]any(nil), it.Ref.Args...)
		out.Set(it.Field, &ref)
	}
	return out
}

// HandlerProp binds a field to a custom extension handler instead of a
// resolver. The container hands these to the registered handler for Key.
type HandlerProp struct {
	Field string
	Key   string
	Meta  any
}
