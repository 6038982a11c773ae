package container

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-boot/framework/annotation"
	"github.com/km-arc/go-boot/framework/metadata"
)

// ContextualBuilder overrides what one field of one class receives.
//
//	c.When(LogService{}).Needs("Dog").Give("cat")
//	c.When(Mailer{}).Needs("From").GiveValue("noreply@example.com")
//
// Contextual bindings are declarations: they take effect when the class is
// bound, so they must be made before BindClass.
type ContextualBuilder struct {
	container *Container
	class     reflect.Type
	field     string
}

// When starts a contextual binding for class.
func (c *Container) When(class any) *ContextualBuilder {
	return &ContextualBuilder{container: c, class: metadata.Target(class)}
}

// Needs names the field the binding applies to.
func (b *ContextualBuilder) Needs(field string) *ContextualBuilder {
	b.field = field
	return b
}

// Give injects the definition bound under identifier into the field.
func (b *ContextualBuilder) Give(identifier string) error {
	if err := b.check(); err != nil {
		return err
	}
	annotation.Declare(b.container.store, b.class).Autowire(b.field, annotation.ByID(identifier))
	return nil
}

// GiveValue injects a ready-made value into the field.
func (b *ContextualBuilder) GiveValue(value any) error {
	if err := b.check(); err != nil {
		return err
	}
	id := fmt.Sprintf("contextual:%s.%s", b.class.Name(), b.field)
	b.container.BindObject(id, value)
	annotation.Declare(b.container.store, b.class).Autowire(b.field, annotation.ByID(id))
	return nil
}

func (b *ContextualBuilder) check() error {
	if b.class == nil || b.class.Kind() != reflect.Struct {
		return fmt.Errorf("container: contextual binding needs a struct class")
	}
	if b.field == "" {
		return fmt.Errorf("container: contextual binding on %s without Needs", b.class.Name())
	}
	if f, ok := b.class.FieldByName(b.field); !ok || !f.IsExported() {
		return fmt.Errorf("container: %s has no exported field %s", b.class.Name(), b.field)
	}
	if ident, ok := annotation.IdentityOf(b.container.store, b.class); ok && b.container.registry.HasDefinition(ident.UUID) {
		return fmt.Errorf("container: %s is already bound", b.class.Name())
	}
	return nil
}
