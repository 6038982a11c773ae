package container

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/definition"
)

// RequestContextAware is implemented by request scoped objects that want the
// request context their child container was created with.
type RequestContextAware interface {
	SetRequestContext(ctx any)
}

// PropertyHandler produces the value of a custom property binding.
type PropertyHandler func(ctx context.Context, instance any, prop definition.HandlerProp) (any, error)

// cell is the creating-set entry of one identifier. handle is set as soon as
// the instance is allocated; exposed records that a circular reference
// received it.
type cell struct {
	handle  any
	exposed bool
}

// ResolverFactory builds instances for one container. It owns the singleton
// cache and the creating-set, and serialises construction so a singleton is
// never built twice.
type ResolverFactory struct {
	container *Container

	mu         sync.Mutex
	resolvers  map[string]Resolver
	creating   map[string][]*cell
	orphans    map[string][]any
	singletons *instanceCache
	requests   *instanceCache

	build *buildLock
	stats *stats
}

func newResolverFactory(c *Container) *ResolverFactory {
	f := &ResolverFactory{
		container:  c,
		resolvers:  make(map[string]Resolver),
		creating:   make(map[string][]*cell),
		orphans:    make(map[string][]any),
		singletons: newInstanceCache(),
		requests:   newInstanceCache(),
		build:      newBuildLock(),
		stats:      newStats(c.metrics),
	}
	f.resolvers[definition.RefType] = &RefResolver{container: c}
	return f
}

// RegisterResolver adds or replaces the resolver for r.Type().
func (f *ResolverFactory) RegisterResolver(r Resolver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolvers[r.Type()] = r
}

func (f *ResolverFactory) resolver(tag string) Resolver {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolvers[tag]
}

// Create builds an instance of def on the sync path.
func (f *ResolverFactory) Create(ctx context.Context, def *definition.Definition, args []any) (any, error) {
	return f.create(ctx, def, args, false)
}

// CreateAsync builds an instance of def on the async path, which also
// accepts async-only dependencies.
func (f *ResolverFactory) CreateAsync(ctx context.Context, def *definition.Definition, args []any) (any, error) {
	return f.create(ctx, def, args, true)
}

func (f *ResolverFactory) create(ctx context.Context, def *definition.Definition, args []any, async bool) (inst any, err error) {
	if def.IsSingletonScope() {
		if v, ok := f.singletons.get(def.ID); ok {
			f.stats.hits.Inc(1)
			return v, nil
		}
	}

	ctx, s := withSession(ctx)
	f.build.acquire(s)
	defer f.build.release(s)

	// another session may have finished it while we waited
	if def.IsSingletonScope() {
		if v, ok := f.singletons.get(def.ID); ok {
			f.stats.hits.Inc(1)
			return v, nil
		}
	}

	if v, ok := f.createProxyReference(ctx, def); ok {
		return v, nil
	}

	if err := f.markCreating(def.ID); err != nil {
		f.stats.failures.Inc(1)
		return nil, err
	}
	defer f.unmarkCreating(def.ID)
	defer func() {
		if err != nil {
			f.stats.failures.Inc(1)
			f.keepOrphan(def)
		}
	}()

	// Plain classes get their handle before dependsOn runs, so a cycle
	// through dependsOn still receives a typed pointer.
	var handle any
	if def.Kind() == definition.KindClass && def.Constructor == nil {
		handle = f.adoptOrphan(def)
		f.setHandle(def.ID, handle)
	}

	for _, dep := range def.DependsOn {
		f.container.logger.Debug("init dependency", zap.String("id", def.ID), zap.String("dependsOn", dep))
		if _, err := f.container.resolve(ctx, dep, nil, async, dep); err != nil {
			return nil, err
		}
	}

	f.container.logger.Debug("create", zap.String("id", def.ID), zap.String("name", def.Name))

	before := &BeforeCreatedOptions{Container: f.container, Definition: def, Args: args}
	f.container.events.emitBeforeCreated(rawTarget(def), before)

	if handle != nil {
		inst = handle
	} else {
		start := time.Now()
		inst, err = def.Creator().Construct(ctx, f.container, before.Args)
		f.stats.construct.UpdateSince(start)
		if err != nil {
			return nil, wrapCreate(def.ID, "construct", err)
		}
		if inst == nil {
			return nil, &CreateError{ID: def.ID, Op: "construct", Err: errors.New("construct returned nil")}
		}
		f.setHandle(def.ID, inst)
	}

	if def.IsRequestScope() && def.Kind() == definition.KindClass {
		if aware, ok := inst.(RequestContextAware); ok && f.container.requestCtx != nil {
			aware.SetRequestContext(f.container.requestCtx)
		}
	}

	for _, p := range def.Properties.Items() {
		if err := f.checkScopeSafety(def, p.Ref); err != nil {
			return nil, err
		}
		v, err := f.resolveManaged(ctx, p.Ref, p.Field, async)
		if err != nil {
			var notFound *DefinitionNotFoundError
			if errors.As(err, &notFound) {
				notFound.annotate(def.Name)
			}
			return nil, err
		}
		if err := definition.Assign(inst, p.Field, v); err != nil {
			return nil, wrapCreate(def.ID, "inject", err)
		}
	}

	for _, hp := range def.HandlerProps {
		h := f.container.propertyHandler(hp.Key)
		if h == nil {
			f.container.logger.Debug("no property handler", zap.String("id", def.ID), zap.String("key", hp.Key))
			continue
		}
		v, err := h(ctx, inst, hp)
		if err != nil {
			return nil, wrapCreate(def.ID, "handle", err)
		}
		if err := definition.Assign(inst, hp.Field, v); err != nil {
			return nil, wrapCreate(def.ID, "handle", err)
		}
	}

	var replacement any
	replaced := false
	f.container.events.emitCreated(inst, &CreatedOptions{
		Container:  f.container,
		Definition: def,
		replace: func(v any) {
			replacement = v
			replaced = true
		},
	})
	if replaced {
		inst = f.replace(def, inst, replacement)
	}

	if err := def.Creator().Init(ctx, inst); err != nil {
		return nil, wrapCreate(def.ID, "init", err)
	}

	f.container.events.emitInit(inst, &InitOptions{Container: f.container, Definition: def})
	f.settleOrphans(def, inst)

	switch {
	case def.IsSingletonScope():
		f.singletons.set(def.ID, inst)
	case def.IsRequestScope():
		f.container.registry.RegisterObject(def.ID, inst)
		f.requests.set(def.ID, inst)
	}
	f.stats.created.Inc(1)
	return inst, nil
}

// replace applies an after-created substitution. When a circular reference
// already holds the original pointer the replacement is copied into it, so
// the holder sees the final object.
func (f *ResolverFactory) replace(def *definition.Definition, inst, replacement any) any {
	f.mu.Lock()
	var exposed bool
	if stack := f.creating[def.ID]; len(stack) > 0 {
		exposed = stack[len(stack)-1].exposed
	}
	f.mu.Unlock()

	if !exposed {
		return replacement
	}
	if definition.Fill(inst, replacement) {
		return inst
	}
	f.container.logger.Warn("replacement cannot be filled into circular handle",
		zap.String("id", def.ID), zap.String("name", def.Name))
	return replacement
}

func (f *ResolverFactory) resolveManaged(ctx context.Context, ref *definition.ManagedReference, field string, async bool) (any, error) {
	r := f.resolver(ref.Type)
	if r == nil {
		return nil, &ResolverMissingError{Type: ref.Type}
	}
	if async {
		return r.ResolveAsync(ctx, ref, field)
	}
	return r.Resolve(ctx, ref, field)
}

func (f *ResolverFactory) checkScopeSafety(def *definition.Definition, ref *definition.ManagedReference) error {
	if !def.IsSingletonScope() || ref == nil || ref.Type != definition.RefType {
		return nil
	}
	dep := f.container.lookupDefinition(ref.Name)
	if dep != nil && dep.IsRequestScope() && !dep.AllowDowngrade {
		return &ScopeSafetyError{Singleton: def.Name, Request: dep.Name}
	}
	return nil
}

// ── Circular references ───────────────────────────────────────────────────────

// keepOrphan remembers the handle of a failed build when a circular
// reference already holds it, so the next successful build can reach the
// holder.
func (f *ResolverFactory) keepOrphan(def *definition.Definition) {
	if def.IsPrototypeScope() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stack := f.creating[def.ID]
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	if top.exposed && top.handle != nil {
		f.orphans[def.ID] = append(f.orphans[def.ID], top.handle)
		f.container.logger.Debug("failed build left an exposed handle", zap.String("id", def.ID))
	}
}

// adoptOrphan returns a zeroed orphaned handle of def, or a fresh one.
func (f *ResolverFactory) adoptOrphan(def *definition.Definition) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := reflect.PointerTo(def.Target)
	list := f.orphans[def.ID]
	for i, h := range list {
		if reflect.TypeOf(h) != want {
			continue
		}
		f.orphans[def.ID] = append(list[:i:i], list[i+1:]...)
		reflect.ValueOf(h).Elem().Set(reflect.Zero(def.Target))
		return h
	}
	return reflect.New(def.Target).Interface()
}

// settleOrphans copies a finished instance into every handle a failed
// build of the same id left behind.
func (f *ResolverFactory) settleOrphans(def *definition.Definition, inst any) {
	f.mu.Lock()
	list := f.orphans[def.ID]
	delete(f.orphans, def.ID)
	f.mu.Unlock()

	for _, h := range list {
		if !definition.Fill(h, inst) {
			f.container.logger.Warn("orphaned handle cannot be filled",
				zap.String("id", def.ID), zap.String("name", def.Name))
		}
	}
}

// maxReentry bounds how often one identifier may be re-entered without a
// declared cycle, which happens when provider functions call back into the
// container.
const maxReentry = 32

func (f *ResolverFactory) markCreating(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.creating[id]) >= maxReentry {
		return &CreateError{ID: id, Op: "construct", Err: errors.New("undeclared circular resolution")}
	}
	f.creating[id] = append(f.creating[id], &cell{})
	return nil
}

func (f *ResolverFactory) unmarkCreating(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stack := f.creating[id]
	if len(stack) <= 1 {
		delete(f.creating, id)
		return
	}
	f.creating[id] = stack[:len(stack)-1]
}

func (f *ResolverFactory) setHandle(id string, inst any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stack := f.creating[id]; len(stack) > 0 {
		stack[len(stack)-1].handle = inst
	}
}

// IsCreating reports whether id is mid-construction.
func (f *ResolverFactory) IsCreating(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creating[id]) > 0
}

// createProxyReference returns a stand-in for def when it is already being
// built and genuinely depends on itself. The allocated instance is returned
// when there is one, otherwise a Deferred cell.
func (f *ResolverFactory) createProxyReference(ctx context.Context, def *definition.Definition) (any, bool) {
	if !f.IsCreating(def.ID) {
		return nil, false
	}
	if !f.depthFirstSearch(def.ID, def, nil) {
		f.container.logger.Debug("re-entrant resolution without cycle", zap.String("id", def.ID))
		return nil, false
	}

	f.mu.Lock()
	stack := f.creating[def.ID]
	top := stack[len(stack)-1]
	if top.handle != nil {
		top.exposed = true
		f.mu.Unlock()
		f.container.logger.Debug("circular reference to allocated handle", zap.String("id", def.ID))
		return top.handle, true
	}
	f.mu.Unlock()

	f.stats.deferred.Inc(1)
	f.container.logger.Debug("circular reference deferred", zap.String("id", def.ID))
	id := def.ID
	return &Deferred{
		id: id,
		resolve: func() (any, error) {
			return f.container.resolve(ctx, id, nil, true, id)
		},
	}, true
}

// depthFirstSearch reports whether identifier is reachable from def through
// property references and dependsOn edges.
func (f *ResolverFactory) depthFirstSearch(identifier string, def *definition.Definition, visited map[string]bool) bool {
	if def == nil {
		return false
	}
	if visited == nil {
		visited = map[string]bool{identifier: true}
	}
	relation := f.container.registry.Relation()
	for _, edge := range edges(def) {
		id := relation.Canonical(edge)
		if id == identifier {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if f.depthFirstSearch(identifier, f.container.lookupDefinition(id), visited) {
			return true
		}
	}
	return false
}

func edges(def *definition.Definition) []string {
	out := make([]string, 0, def.Properties.Len()+len(def.DependsOn))
	for _, p := range def.Properties.Items() {
		if p.Ref != nil && p.Ref.Type == definition.RefType && p.Ref.Name != "" {
			out = append(out, p.Ref.Name)
		}
	}
	return append(out, def.DependsOn...)
}

// ── Teardown ──────────────────────────────────────────────────────────────────

// DestroyCache runs the destroy hook of every cached singleton in creation
// order, then of every request scoped instance, and clears the caches.
// Every hook runs; their errors are joined.
func (f *ResolverFactory) DestroyCache(ctx context.Context) error {
	ctx, s := withSession(ctx)
	f.build.acquire(s)
	defer f.build.release(s)

	var errs []error
	for _, cache := range []*instanceCache{f.singletons, f.requests} {
		for _, e := range cache.entries() {
			def := f.container.lookupDefinition(e.id)
			if def == nil {
				continue
			}
			f.container.events.emitBeforeDestroy(e.value, &BeforeDestroyOptions{Container: f.container, Definition: def})
			if err := def.Creator().Destroy(ctx, e.value); err != nil {
				f.container.logger.Error("destroy failed", zap.String("id", e.id), zap.Error(err))
				errs = append(errs, wrapCreate(e.id, "destroy", err))
			}
		}
	}

	f.singletons.clear()
	f.requests.clear()
	f.mu.Lock()
	f.creating = make(map[string][]*cell)
	f.orphans = make(map[string][]any)
	f.mu.Unlock()
	return errors.Join(errs...)
}

// SingletonIDs lists the identifiers held in the singleton cache.
func (f *ResolverFactory) SingletonIDs() []string {
	entries := f.singletons.entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

func rawTarget(def *definition.Definition) any {
	if def.Kind() == definition.KindFunction {
		return def.Provider
	}
	return def.Target
}

// ── instanceCache ─────────────────────────────────────────────────────────────

type cacheEntry struct {
	id    string
	value any
}

// instanceCache is a map that remembers insertion order.
type instanceCache struct {
	mu     sync.RWMutex
	order  []string
	values map[string]any
}

func newInstanceCache() *instanceCache {
	return &instanceCache{values: make(map[string]any)}
}

func (c *instanceCache) get(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[id]
	return v, ok
}

func (c *instanceCache) set(id string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[id]; !ok {
		c.order = append(c.order, id)
	}
	c.values[id] = v
}

func (c *instanceCache) entries() []cacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]cacheEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cacheEntry{id: id, value: c.values[id]})
	}
	return out
}

func (c *instanceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.values = make(map[string]any)
}

// ── stats ─────────────────────────────────────────────────────────────────────

type stats struct {
	created   metrics.Counter
	hits      metrics.Counter
	deferred  metrics.Counter
	failures  metrics.Counter
	construct metrics.Timer
}

func newStats(reg metrics.Registry) *stats {
	return &stats{
		created:   metrics.GetOrRegisterCounter("container.objects.created", reg),
		hits:      metrics.GetOrRegisterCounter("container.cache.hits", reg),
		deferred:  metrics.GetOrRegisterCounter("container.cycles.deferred", reg),
		failures:  metrics.GetOrRegisterCounter("container.resolve.failures", reg),
		construct: metrics.GetOrRegisterTimer("container.construct", reg),
	}
}
