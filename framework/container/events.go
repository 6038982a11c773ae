package container

import (
	"sync"

	"github.com/km-arc/go-boot/framework/definition"
)

// ── Event payloads ────────────────────────────────────────────────────────────

// BeforeBindOptions is passed to OnBeforeBind callbacks.
type BeforeBindOptions struct {
	Container  *Container
	Definition *definition.Definition
	replace    func(*definition.Definition)
}

// Replace swaps the definition about to be registered. Replacing it with nil
// skips registration.
func (o *BeforeBindOptions) Replace(def *definition.Definition) { o.replace(def) }

// BeforeCreatedOptions is passed to OnBeforeObjectCreated callbacks. Args may
// be changed; the creator receives whatever it holds afterwards.
type BeforeCreatedOptions struct {
	Container  *Container
	Definition *definition.Definition
	Args       []any
}

// CreatedOptions is passed to OnObjectCreated callbacks.
type CreatedOptions struct {
	Container  *Container
	Definition *definition.Definition
	replace    func(any)
}

// Replace substitutes the instance handed to the init hook and cached.
func (o *CreatedOptions) Replace(instance any) { o.replace(instance) }

// InitOptions is passed to OnObjectInit callbacks.
type InitOptions struct {
	Container  *Container
	Definition *definition.Definition
}

// BeforeDestroyOptions is passed to OnBeforeObjectDestroy callbacks.
type BeforeDestroyOptions struct {
	Container  *Container
	Definition *definition.Definition
}

// ── Event hub ─────────────────────────────────────────────────────────────────

// events is shared by a container and all of its request children.
type events struct {
	mu            sync.RWMutex
	beforeBind    []func(target any, opts *BeforeBindOptions)
	beforeCreated []func(target any, opts *BeforeCreatedOptions)
	created       []func(instance any, opts *CreatedOptions)
	initialized   []func(instance any, opts *InitOptions)
	beforeDestroy []func(instance any, opts *BeforeDestroyOptions)
}

func (e *events) emitBeforeBind(target any, opts *BeforeBindOptions) {
	e.mu.RLock()
	cbs := e.beforeBind
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(target, opts)
	}
}

func (e *events) emitBeforeCreated(target any, opts *BeforeCreatedOptions) {
	e.mu.RLock()
	cbs := e.beforeCreated
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(target, opts)
	}
}

func (e *events) emitCreated(instance any, opts *CreatedOptions) {
	e.mu.RLock()
	cbs := e.created
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance, opts)
	}
}

func (e *events) emitInit(instance any, opts *InitOptions) {
	e.mu.RLock()
	cbs := e.initialized
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance, opts)
	}
}

func (e *events) emitBeforeDestroy(instance any, opts *BeforeDestroyOptions) {
	e.mu.RLock()
	cbs := e.beforeDestroy
	e.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance, opts)
	}
}

// ── Subscription ──────────────────────────────────────────────────────────────

// OnBeforeBind registers a callback fired before a definition is registered.
// target is the class type or *definition.FunctionProvider being bound.
//
//	c.OnBeforeBind(func(target any, opts *container.BeforeBindOptions) {
//	    if opts.Definition.Name == "legacyMailer" {
//	        opts.Replace(nil)
//	    }
//	})
func (c *Container) OnBeforeBind(fn func(target any, opts *BeforeBindOptions)) {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()
	c.events.beforeBind = append(c.events.beforeBind, fn)
}

// OnBeforeObjectCreated registers a callback fired right before a creator
// runs. target is the class type or the provider function.
func (c *Container) OnBeforeObjectCreated(fn func(target any, opts *BeforeCreatedOptions)) {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()
	c.events.beforeCreated = append(c.events.beforeCreated, fn)
}

// OnObjectCreated registers a callback fired once properties are injected
// and before the init hook runs.
//
//	c.OnObjectCreated(func(instance any, opts *container.CreatedOptions) {
//	    if svc, ok := instance.(*Mailer); ok {
//	        opts.Replace(&Mailer{Transport: svc.Transport, Retries: 3})
//	    }
//	})
func (c *Container) OnObjectCreated(fn func(instance any, opts *CreatedOptions)) {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()
	c.events.created = append(c.events.created, fn)
}

// OnObjectInit registers a callback fired after the init hook.
func (c *Container) OnObjectInit(fn func(instance any, opts *InitOptions)) {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()
	c.events.initialized = append(c.events.initialized, fn)
}

// OnBeforeObjectDestroy registers a callback fired before each destroy hook.
func (c *Container) OnBeforeObjectDestroy(fn func(instance any, opts *BeforeDestroyOptions)) {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()
	c.events.beforeDestroy = append(c.events.beforeDestroy, fn)
}
