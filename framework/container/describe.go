package container

import (
	"sort"

	"github.com/km-arc/go-boot/framework/definition"
)

// PropertyInfo describes one injected field.
type PropertyInfo struct {
	Field    string `json:"field"`
	Resolver string `json:"resolver"`
	Target   string `json:"target"`
	Mode     string `json:"mode"`
}

// DefinitionInfo is a serialisable view of a definition.
type DefinitionInfo struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Aliases        []string       `json:"aliases,omitempty"`
	Kind           string         `json:"kind"`
	Type           string         `json:"type,omitempty"`
	Scope          string         `json:"scope"`
	Namespace      string         `json:"namespace,omitempty"`
	SrcPath        string         `json:"srcPath,omitempty"`
	CreateFrom     string         `json:"createFrom"`
	Async          bool           `json:"async"`
	AllowDowngrade bool           `json:"allowDowngrade"`
	DependsOn      []string       `json:"dependsOn,omitempty"`
	Properties     []PropertyInfo `json:"properties,omitempty"`
	InitMethod     string         `json:"initMethod,omitempty"`
	DestroyMethod  string         `json:"destroyMethod,omitempty"`
	Materialized   bool           `json:"materialized"`
}

// Definitions describes every definition bound in c, in bind order.
func (c *Container) Definitions() []DefinitionInfo {
	aliases := c.aliases()
	defs := c.registry.Definitions()
	out := make([]DefinitionInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, c.describe(def, aliases[def.ID]))
	}
	return out
}

// Describe returns the definition identifier resolves to in c or its
// ancestors.
func (c *Container) Describe(identifier any) (DefinitionInfo, bool) {
	id, _, err := c.identify(identifier)
	if err != nil {
		return DefinitionInfo{}, false
	}
	def := c.lookupDefinition(id)
	if def == nil {
		return DefinitionInfo{}, false
	}
	return c.describe(def, c.aliases()[def.ID]), true
}

func (c *Container) describe(def *definition.Definition, aliases []string) DefinitionInfo {
	info := DefinitionInfo{
		ID:             def.ID,
		Name:           def.Name,
		Aliases:        aliases,
		Kind:           def.Kind().String(),
		Scope:          def.Scope.String(),
		Namespace:      def.Namespace,
		SrcPath:        def.SrcPath,
		CreateFrom:     string(def.CreateFrom),
		Async:          def.Async,
		AllowDowngrade: def.AllowDowngrade,
		DependsOn:      def.DependsOn,
		InitMethod:     def.InitMethod,
		DestroyMethod:  def.DestroyMethod,
		Materialized:   c.HasObject(def.ID),
	}
	if def.Target != nil {
		info.Type = def.Target.String()
	}
	for _, p := range def.Properties.Items() {
		if p.Ref == nil {
			continue
		}
		info.Properties = append(info.Properties, PropertyInfo{
			Field:    p.Field,
			Resolver: p.Ref.Type,
			Target:   p.Ref.Name,
			Mode:     p.Ref.Mode.String(),
		})
	}
	return info
}

// aliases groups the relation table by canonical id.
func (c *Container) aliases() map[string][]string {
	out := make(map[string][]string)
	for alias, id := range c.registry.Relation().All() {
		if alias != id {
			out[id] = append(out[id], alias)
		}
	}
	for _, list := range out {
		sort.Strings(list)
	}
	return out
}
