package annotation

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/metadata"
)

type Cat struct{}

type base struct {
	Logger any
	Clock  any
}

func (b *base) Close() {}

type LogService struct {
	base
	Cat    *Cat
	Dog    any
	Clock  any
	Prefix string
}

func (s *LogService) Setup() {}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"LogService": "logService",
		"HTTPServer": "httpServer",
		"ID":         "id",
		"user_repo":  "userRepo",
		"cat":        "cat",
		"A":          "a",
	}
	for in, want := range cases {
		assert.Equal(t, want, CamelCase(in), in)
	}
}

func TestProvide_Identity(t *testing.T) {
	s := metadata.New()
	Declare(s, LogService{}).Provide("logger")

	ident, ok := IdentityOf(s, &LogService{})
	require.True(t, ok)
	assert.Equal(t, "logger", ident.ID)
	assert.Equal(t, "logService", ident.Name)
	assert.Equal(t, "LogService", ident.OriginName)
	assert.NotEmpty(t, ident.UUID)
}

func TestProvide_KeepsUUIDAcrossRedeclaration(t *testing.T) {
	s := metadata.New()
	first := EnsureIdentity(s, Cat{})
	Declare(s, Cat{}).Provide("cat")

	second, _ := IdentityOf(s, Cat{})
	assert.Equal(t, first.UUID, second.UUID)
	assert.Equal(t, "cat", second.ID)
	assert.Equal(t, []reflect.Type{reflect.TypeOf(Cat{})}, Declared(s))
}

func TestOptionsOf_MergesDeclarations(t *testing.T) {
	s := metadata.New()
	Declare(s, base{}).Destroy("Close").Scope(definition.Request)
	Declare(s, LogService{}).
		Scope(definition.Singleton, AllowDowngrade()).
		Init("Setup").
		Async()

	o := OptionsOf(s, LogService{})
	assert.Equal(t, definition.Singleton, o.Scope)
	assert.True(t, o.AllowDowngrade)
	assert.True(t, o.Async)
	assert.Equal(t, "Setup", o.InitMethod)
	assert.Equal(t, "Close", o.DestroyMethod, "inherited from the embedded class")
}

func TestOptionsOf_Constructor(t *testing.T) {
	s := metadata.New()
	Declare(s, Cat{}).Constructor(func(context.Context, []any) (any, error) { return &Cat{}, nil })

	assert.NotNil(t, OptionsOf(s, Cat{}).Constructor)
	assert.Nil(t, OptionsOf(s, LogService{}).Constructor)
}

func TestPropertiesOf_Modes(t *testing.T) {
	s := metadata.New()
	Declare(s, base{}).Autowire("Logger", ByID("logger")).Autowire("Clock", ByID("wallClock"))
	Declare(s, LogService{}).
		Autowire("Cat", ByClass(Cat{}, "arg")).
		Autowire("Dog").
		Autowire("Clock", ByID("monoClock")).
		Value("Prefix", "app.name")

	props := PropertiesOf(s, LogService{})
	var fields []string
	for _, p := range props.Items() {
		fields = append(fields, p.Field)
	}
	assert.Equal(t, []string{"Logger", "Clock", "Cat", "Dog", "Prefix"}, fields)

	clock, _ := props.Get("Clock")
	assert.Equal(t, "monoClock", clock.Name, "subclass wins")

	cat, _ := props.Get("Cat")
	catIdent, ok := IdentityOf(s, Cat{})
	require.True(t, ok, "ByClass provides the class")
	assert.Equal(t, catIdent.UUID, cat.Name)
	assert.Equal(t, definition.ByClass, cat.Mode)
	assert.Equal(t, []any{"arg"}, cat.Args)

	dog, _ := props.Get("Dog")
	assert.Equal(t, "dog", dog.Name)
	assert.Equal(t, definition.ByPropertyName, dog.Mode)
	assert.Equal(t, definition.RefType, dog.Type)

	prefix, _ := props.Get("Prefix")
	assert.Equal(t, definition.ValueType, prefix.Type)
	assert.Equal(t, "app.name", prefix.Name)
}

func TestDependsOnOf_Dedupes(t *testing.T) {
	s := metadata.New()
	Declare(s, base{}).DependsOn("db")
	Declare(s, LogService{}).DependsOn("cache", "db")

	assert.Equal(t, []string{"db", "cache"}, DependsOnOf(s, LogService{}))
}

func TestHandlerPropsOf(t *testing.T) {
	s := metadata.New()
	Declare(s, LogService{}).Handle("Prefix", "env", "APP_PREFIX")

	hp := HandlerPropsOf(s, LogService{})
	require.Len(t, hp, 1)
	assert.Equal(t, definition.HandlerProp{Field: "Prefix", Key: "env", Meta: "APP_PREFIX"}, hp[0])
}

func TestDeclare_PanicsOnMisuse(t *testing.T) {
	s := metadata.New()
	assert.Panics(t, func() { Declare(s, 42) })
	assert.Panics(t, func() { Declare(s, Cat{}).Autowire("Missing") })
	assert.Panics(t, func() { Declare(s, Cat{}).Init("Missing") })
}
