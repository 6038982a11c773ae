package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-boot/framework/definition"
)

type cat struct{}

func classDef(id string, scope definition.Scope) *definition.Definition {
	d := definition.NewClass(id, reflect.TypeOf(cat{}))
	d.Scope = scope
	return d
}

func TestRelation_ClassAliases(t *testing.T) {
	rel := NewIdentifierRelation()
	rel.SaveClassRelation(definition.Identity{
		ID: "kitty", UUID: "u-1", Name: "cat", OriginName: "Cat",
	}, "zoo")

	for _, alias := range []string{"u-1", "kitty", "cat", "Cat", "zoo:cat"} {
		got, ok := rel.GetRelation(alias)
		require.True(t, ok, alias)
		assert.Equal(t, "u-1", got, alias)
	}
	_, ok := rel.GetRelation("dog")
	assert.False(t, ok)
	assert.Equal(t, "dog", rel.Canonical("dog"))
}

func TestRelation_OriginNameDoesNotStealAlias(t *testing.T) {
	rel := NewIdentifierRelation()
	rel.SaveFunctionRelation("Cat", "fn-1")
	rel.SaveClassRelation(definition.Identity{UUID: "u-1", Name: "cat", OriginName: "Cat"}, "")

	assert.Equal(t, "fn-1", rel.Canonical("Cat"))
	assert.Equal(t, "u-1", rel.Canonical("cat"))
}

func TestRelation_IgnoresEmptyUUID(t *testing.T) {
	rel := NewIdentifierRelation()
	rel.SaveClassRelation(definition.Identity{ID: "x"}, "")
	assert.False(t, rel.HasRelation("x"))
}

func TestRegistry_DefinitionsThroughAliases(t *testing.T) {
	r := New(nil)
	r.Relation().SaveFunctionRelation("clock", "fn-clock")
	def := classDef("fn-clock", definition.Prototype)
	r.RegisterDefinition("fn-clock", def)

	assert.Same(t, def, r.GetDefinition("clock"))
	assert.True(t, r.HasDefinition("clock"))
	assert.Nil(t, r.GetDefinition("missing"))
}

func TestRegistry_SingletonOrder(t *testing.T) {
	r := New(nil)
	r.RegisterDefinition("b", classDef("b", definition.Singleton))
	r.RegisterDefinition("p", classDef("p", definition.Prototype))
	r.RegisterDefinition("a", classDef("a", definition.Singleton))

	assert.Equal(t, []string{"b", "a"}, r.SingletonDefinitionIDs())
	assert.Equal(t, []string{"b", "p", "a"}, r.Identifiers())

	r.RemoveDefinition("b")
	assert.Equal(t, []string{"a"}, r.SingletonDefinitionIDs())
	assert.Equal(t, []string{"p", "a"}, r.Identifiers())
}

func TestRegistry_ObjectsDoNotCollideWithDefinitions(t *testing.T) {
	r := New(nil)
	r.RegisterDefinition("cat", classDef("cat", definition.Request))
	r.RegisterObject("cat", &cat{})

	assert.True(t, r.HasDefinition("cat"))
	assert.True(t, r.HasObject("cat"))
	assert.Len(t, r.Definitions(), 1)
	assert.Equal(t, []string{"cat"}, r.ObjectIDs())
	assert.Equal(t, 2, r.Count())

	r.RemoveDefinition("cat")
	assert.True(t, r.HasObject("cat"), "removing a definition keeps the instance")
}

func TestRegistry_ObjectByAlias(t *testing.T) {
	r := New(nil)
	r.Relation().SaveClassRelation(definition.Identity{UUID: "u-1", Name: "cat"}, "")
	obj := &cat{}
	r.RegisterObject("u-1", obj)

	got, ok := r.GetObject("cat")
	require.True(t, ok)
	assert.Same(t, obj, got)
}

func TestRegistry_GetDefinitionByName(t *testing.T) {
	r := New(nil)
	a := classDef("a", definition.Singleton)
	a.Name = "shared"
	b := classDef("b", definition.Singleton)
	b.Name = "shared"
	r.RegisterDefinition("a", a)
	r.RegisterDefinition("b", b)

	assert.Len(t, r.GetDefinitionByName("shared"), 2)
	assert.Empty(t, r.GetDefinitionByName("other"))
}

func TestRegistry_ClearAll(t *testing.T) {
	r := New(nil)
	r.RegisterDefinition("a", classDef("a", definition.Singleton))
	r.RegisterObject("a", &cat{})
	r.ClearAll()

	assert.False(t, r.HasDefinition("a"))
	assert.False(t, r.HasObject("a"))
	assert.Empty(t, r.SingletonDefinitionIDs())
	assert.Zero(t, r.Count())
}
