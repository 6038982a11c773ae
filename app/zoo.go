package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/annotation"
	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/manifest"
)

// Cat is shared by the whole zoo.
type Cat struct {
	Name string
}

func (c *Cat) Say() string { return c.Name + ": meow" }

// Dog needs to be walked out when the zoo closes.
type Dog struct {
	Name   string
	Logger *zap.Logger
	closed bool
}

func (d *Dog) Close() {
	d.closed = true
	d.Logger.Info("dog went home", zap.String("name", d.Name))
}

// Closed reports whether the destroy hook ran.
func (d *Dog) Closed() bool { return d.closed }

// LogService reports on the animals it is wired to.
type LogService struct {
	Cat    *Cat
	Dog    *Dog
	Prefix string
	ready  bool
}

func (s *LogService) Setup() error {
	if s.Cat == nil || s.Dog == nil {
		return fmt.Errorf("log service: animals missing")
	}
	s.ready = true
	return nil
}

// Report describes the animals.
func (s *LogService) Report() string {
	return fmt.Sprintf("[%s] %s, %s: woof", s.Prefix, s.Cat.Say(), s.Dog.Name)
}

// Ready reports whether Setup ran.
func (s *LogService) Ready() bool { return s.ready }

// Keeper looks after a dog during a shift. Keepers are only bound from
// manifests.
type Keeper struct {
	Name  string
	Shift string
	Dog   *Dog
}

func (k *Keeper) Greet() string {
	return fmt.Sprintf("%s walks %s in the %s", k.Name, k.Dog.Name, k.Shift)
}

// Visitor is built once per request.
type Visitor struct {
	Ticket  int64
	Request any
}

func (v *Visitor) SetRequestContext(ctx any) { v.Request = ctx }

var tickets atomic.Int64

// Declare records the zoo classes in store.
func Declare(c *container.Container) {
	store := c.Store()
	annotation.Declare(store, Cat{}).
		Provide("cat").
		Scope(definition.Singleton).
		Constructor(func(context.Context, []any) (any, error) {
			return &Cat{Name: "cat"}, nil
		})
	annotation.Declare(store, Dog{}).
		Provide("dog").
		Scope(definition.Singleton).
		Constructor(func(context.Context, []any) (any, error) {
			return &Dog{Name: "dog"}, nil
		}).
		Autowire("Logger", annotation.ByID("logger")).
		Destroy("Close")
	annotation.Declare(store, LogService{}).
		Provide("logService").
		Scope(definition.Singleton).
		Autowire("Cat").
		Autowire("Dog").
		Value("Prefix", "app.name").
		Init("Setup")
	annotation.Declare(store, Visitor{}).
		Provide("visitor").
		Scope(definition.Request).
		Constructor(func(context.Context, []any) (any, error) {
			return &Visitor{Ticket: tickets.Add(1)}, nil
		})
}

// Catalog names the zoo classes for manifests.
func Catalog() *manifest.Catalog {
	return manifest.NewCatalog().
		Class("Cat", Cat{}).
		Class("Dog", Dog{}).
		Class("LogService", LogService{}).
		Class("Keeper", Keeper{}).
		Class("Visitor", Visitor{}).
		Provider("ticket", func(context.Context, definition.Locator, []any) (any, error) {
			return tickets.Add(1), nil
		})
}

// ZooProvider binds the declared zoo classes under the "zoo" namespace.
type ZooProvider struct {
	container.BaseProvider
}

func (p *ZooProvider) Namespace() string { return "zoo" }

func (p *ZooProvider) Register(c *container.Container) error {
	Declare(c)
	return c.BindDeclared(container.WithNamespace(p.Namespace()))
}

func (p *ZooProvider) ImportObjects() map[string]any {
	return map[string]any{"opening": "09:00"}
}
