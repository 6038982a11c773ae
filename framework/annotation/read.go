package annotation

import (
	"strings"
	"unicode"

	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/metadata"
)

// Options are the definition settings declared on a class, including those
// inherited from embedded ancestors.
type Options struct {
	Scope          definition.Scope
	AllowDowngrade bool
	InitMethod     string
	DestroyMethod  string
	Async          bool
	Constructor    definition.Constructor
}

// OptionsOf reads the declared options of class.
func OptionsOf(store *metadata.Store, class any) Options {
	var o Options
	v, ok := store.GetExtended(OptionsKey, class)
	if !ok {
		return o
	}
	m, _ := v.(map[string]any)
	o.Scope, _ = m[optScope].(definition.Scope)
	o.AllowDowngrade, _ = m[optAllowDowngrade].(bool)
	o.InitMethod, _ = m[optInit].(string)
	o.DestroyMethod, _ = m[optDestroy].(string)
	o.Async, _ = m[optAsync].(bool)
	o.Constructor, _ = m[optConstructor].(definition.Constructor)
	return o
}

// DependsOnOf reads the hard dependencies of class, ancestors first, without
// duplicates.
func DependsOnOf(store *metadata.Store, class any) []string {
	v, _ := store.GetExtended(DependsOnKey, class)
	list, _ := v.([]any)
	seen := make(map[string]bool, len(list))
	var out []string
	for _, it := range list {
		id, ok := it.(string)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// PropertiesOf turns the autowired fields of class into managed references.
// A subclass declaration for a field replaces the inherited one in place.
func PropertiesOf(store *metadata.Store, class any) *definition.Properties {
	props := definition.NewProperties()
	v, _ := store.GetExtended(InjectKey, class)
	list, _ := v.([]any)
	for _, it := range list {
		s, ok := it.(Source)
		if !ok {
			continue
		}
		ref := &definition.ManagedReference{
			Type: s.tag,
			Mode: s.mode,
			Args: s.args,
		}
		switch {
		case s.tag == definition.ValueType:
			ref.Name = s.id
		case s.mode == definition.ByClass:
			ref.Name = EnsureIdentity(store, s.class).UUID
		case s.mode == definition.ByPropertyName:
			ref.Name = CamelCase(s.field)
		default:
			ref.Name = s.id
		}
		props.Set(s.field, ref)
	}
	return props
}

// HandlerPropsOf reads the custom property bindings of class.
func HandlerPropsOf(store *metadata.Store, class any) []definition.HandlerProp {
	v, _ := store.GetExtended(CustomKey, class)
	list, _ := v.([]any)
	out := make([]definition.HandlerProp, 0, len(list))
	for _, it := range list {
		if hp, ok := it.(definition.HandlerProp); ok {
			out = append(out, hp)
		}
	}
	return out
}

// CamelCase lower-cases the leading initialism of name and joins snake case
// parts: "LogService" → "logService", "HTTPServer" → "httpServer",
// "user_repo" → "userRepo".
func CamelCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	var b strings.Builder
	for i, p := range parts {
		if i == 0 {
			b.WriteString(lowerHead(p))
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func lowerHead(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	// "HTTPServer": keep the S that starts the next word.
	if n > 1 && n < len(r) && unicode.IsLower(r[n]) {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
