package container

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/annotation"
	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/metadata"
	"github.com/km-arc/go-boot/framework/registry"
)

// Reserved identifiers.
const (
	// ContainerKey is the identifier every container binds itself under.
	ContainerKey = "container"
	// RequestCtxKey is the identifier of the request context in a child.
	RequestCtxKey = "ctx"
	// PipelineIdentifier is always materialised in request children.
	PipelineIdentifier = "__pipeline_identifier__"
	// MainNamespace is the namespace of providers that declare none.
	MainNamespace = "__MAIN__"
)

// ── Options ───────────────────────────────────────────────────────────────────

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for bind, create and destroy tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithMetrics sets the registry resolution counters are recorded in.
func WithMetrics(r metrics.Registry) Option {
	return func(c *Container) { c.metrics = r }
}

// WithStore sets the metadata store declarations are read from.
func WithStore(s *metadata.Store) Option {
	return func(c *Container) { c.store = s }
}

// WithValueSource enables "value" references backed by src.
func WithValueSource(src ValueSource) Option {
	return func(c *Container) { c.valueSource = src }
}

// BindOptions carry provenance and overrides for one bind call.
type BindOptions struct {
	Namespace  string
	SrcPath    string
	Scope      definition.Scope
	CreateFrom definition.CreateFrom
	// BindHook runs before the definition is built. Returning an error
	// aborts the bind.
	BindHook func(target any, opts *BindOptions) error
}

// BindOption configures a bind call.
type BindOption func(*BindOptions)

func WithNamespace(ns string) BindOption { return func(o *BindOptions) { o.Namespace = ns } }
func WithSrcPath(path string) BindOption { return func(o *BindOptions) { o.SrcPath = path } }
func WithScope(s definition.Scope) BindOption {
	return func(o *BindOptions) { o.Scope = s }
}
func WithCreateFrom(from definition.CreateFrom) BindOption {
	return func(o *BindOptions) { o.CreateFrom = from }
}
func WithBindHook(fn func(target any, opts *BindOptions) error) BindOption {
	return func(o *BindOptions) { o.BindHook = fn }
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container binds definitions and resolves them into objects.
//
// A container created with New is application scoped. CreateChild derives a
// request scoped child that materialises request definitions locally and
// sends everything else to its parent.
type Container struct {
	mu     sync.RWMutex
	bindMu sync.Mutex

	parent   *Container
	request  bool
	store    *metadata.Store
	registry *registry.Registry
	factory  *ResolverFactory
	events   *events

	namespaces []string
	attrs      map[string]any
	handlers   map[string]PropertyHandler

	requestCtx  any
	valueSource ValueSource
	logger      *zap.Logger
	metrics     metrics.Registry
}

// New creates an application container.
func New(opts ...Option) *Container {
	c := &Container{
		events:   &events{},
		attrs:    make(map[string]any),
		handlers: make(map[string]PropertyHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = metadata.New()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.metrics == nil {
		c.metrics = metrics.NewRegistry()
	}
	c.registry = registry.New(nil)
	c.factory = newResolverFactory(c)
	if c.valueSource != nil {
		c.factory.RegisterResolver(&ValueResolver{Source: c.valueSource})
	}
	c.BindObject(ContainerKey, c)
	return c
}

// CreateChild returns a request container chained to c. requestCtx is bound
// under RequestCtxKey and handed to request scoped objects implementing
// RequestContextAware.
func (c *Container) CreateChild(requestCtx any) *Container {
	store := metadata.New()
	store.Bind(c.store)

	child := &Container{
		parent:      c,
		request:     true,
		store:       store,
		registry:    registry.New(c.registry.Relation()),
		events:      c.events,
		attrs:       make(map[string]any),
		handlers:    make(map[string]PropertyHandler),
		requestCtx:  requestCtx,
		valueSource: c.valueSource,
		logger:      c.logger.Named("request"),
		metrics:     c.metrics,
	}
	child.factory = newResolverFactory(child)
	c.factory.mu.Lock()
	for tag, r := range c.factory.resolvers {
		if tag != definition.RefType {
			child.factory.resolvers[tag] = r
		}
	}
	c.factory.mu.Unlock()

	child.BindObject(ContainerKey, child)
	if requestCtx != nil {
		child.BindObject(RequestCtxKey, requestCtx)
	}
	return child
}

// Parent returns the container c was created from, or nil.
func (c *Container) Parent() *Container { return c.parent }

// Store returns the metadata store declarations are read from.
func (c *Container) Store() *metadata.Store { return c.store }

// Registry returns the definition registry.
func (c *Container) Registry() *registry.Registry { return c.registry }

// Factory returns the resolver factory.
func (c *Container) Factory() *ResolverFactory { return c.factory }

// Logger returns the container logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// Metrics returns the registry resolution metrics are recorded in.
func (c *Container) Metrics() metrics.Registry { return c.metrics }

// RequestContext returns the context a request child was created with.
func (c *Container) RequestContext() any { return c.requestCtx }

// ── Binding ───────────────────────────────────────────────────────────────────

// Bind registers target under identifier. target is a class (struct value,
// pointer or reflect.Type) or a *definition.FunctionProvider. With an empty
// identifier Bind behaves like BindClass.
//
// Binding an identifier that already has a definition does nothing.
//
//	c.Bind("cat", Cat{}, container.WithScope(definition.Singleton))
func (c *Container) Bind(identifier string, target any, opts ...BindOption) error {
	o := &BindOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if identifier == "" {
		return c.bindModule(target, o)
	}
	return c.bind(identifier, target, o, nil)
}

// BindClass registers a class, a function provider or a []any of both under
// their canonical identifiers, recording every alias.
//
//	annotation.Declare(c.Store(), Cat{}).Provide().Scope(definition.Singleton)
//	c.BindClass(Cat{})
//	cat, _ := c.Get(ctx, "cat")
func (c *Container) BindClass(target any, opts ...BindOption) error {
	return c.Bind("", target, opts...)
}

// BindDeclared binds every class provided in the container's store.
func (c *Container) BindDeclared(opts ...BindOption) error {
	for _, t := range annotation.Declared(c.store) {
		if err := c.BindClass(t, opts...); err != nil {
			return err
		}
	}
	return nil
}

// BindObject registers a ready-made object under identifier.
func (c *Container) BindObject(identifier string, obj any) {
	c.registry.RegisterObject(identifier, obj)
}

func (c *Container) bindModule(target any, o *BindOptions) error {
	switch t := target.(type) {
	case []any:
		for _, m := range t {
			if err := c.bindModule(m, o); err != nil {
				return err
			}
		}
		return nil
	case *definition.FunctionProvider:
		if t.ID == "" {
			return fmt.Errorf("container: function provider without id")
		}
		relation := c.registry.Relation()
		if relation.HasRelation(t.ID) && c.registry.HasDefinition(t.ID) {
			return nil
		}
		fo := *o
		if fo.Scope == "" {
			fo.Scope = t.Scope
		}
		if fo.Scope == "" {
			fo.Scope = definition.Request
		}
		id := uuid.NewString()
		return c.bind(id, t, &fo, func() { relation.SaveFunctionRelation(t.ID, id) })
	}

	class := metadata.Target(target)
	if class == nil || class.Kind() != reflect.Struct {
		return fmt.Errorf("container: cannot bind %T", target)
	}
	ident := annotation.EnsureIdentity(c.store, class)
	return c.bind(ident.UUID, class, o, func() {
		c.registry.Relation().SaveClassRelation(ident, o.Namespace)
	})
}

// bind registers the definition of target under identifier. relate records
// the identifier's aliases once the bind hook has accepted it.
func (c *Container) bind(identifier string, target any, o *BindOptions, relate func()) error {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	if c.registry.HasDefinition(identifier) {
		c.logger.Debug("already bound", zap.String("id", identifier))
		return nil
	}
	if o.BindHook != nil {
		if err := o.BindHook(target, o); err != nil {
			return err
		}
	}
	if relate != nil {
		relate()
	}

	var def *definition.Definition
	if fp, ok := target.(*definition.FunctionProvider); ok {
		def = definition.NewFunction(identifier, fp.Provide)
		def.Name = fp.ID
		def.Async = fp.Async
	} else {
		class := metadata.Target(target)
		if class == nil || class.Kind() != reflect.Struct {
			return fmt.Errorf("container: cannot bind %T", target)
		}
		def = definition.NewClass(identifier, class)
		if ident, ok := annotation.IdentityOf(c.store, class); ok {
			def.Name = ident.Name
		} else {
			def.Name = annotation.CamelCase(class.Name())
		}
	}

	def.SrcPath = o.SrcPath
	def.Namespace = o.Namespace
	if o.CreateFrom != "" {
		def.CreateFrom = o.CreateFrom
	}
	if o.Scope != "" {
		def.Scope = o.Scope
	}

	if def.Kind() == definition.KindClass {
		c.applyDeclarations(def)
	}

	c.logger.Debug("bind",
		zap.String("id", identifier),
		zap.String("name", def.Name),
		zap.String("scope", def.Scope.String()),
		zap.String("srcPath", def.SrcPath))

	c.events.emitBeforeBind(target, &BeforeBindOptions{
		Container:  c,
		Definition: def,
		replace:    func(d *definition.Definition) { def = d },
	})
	if def != nil {
		c.registry.RegisterDefinition(def.ID, def)
	}
	return nil
}

func (c *Container) applyDeclarations(def *definition.Definition) {
	def.Properties = annotation.PropertiesOf(c.store, def.Target)
	def.HandlerProps = annotation.HandlerPropsOf(c.store, def.Target)
	def.DependsOn = annotation.DependsOnOf(c.store, def.Target)

	o := annotation.OptionsOf(c.store, def.Target)
	if o.InitMethod != "" {
		def.InitMethod = o.InitMethod
	}
	if o.DestroyMethod != "" {
		def.DestroyMethod = o.DestroyMethod
	}
	if o.Scope != "" {
		def.Scope = o.Scope
	}
	def.AllowDowngrade = o.AllowDowngrade
	def.Async = o.Async
	def.Constructor = o.Constructor
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Get resolves identifier, constructing it when needed. identifier is an
// identifier or alias string, a class, or a *definition.FunctionProvider.
// args are passed to the creator.
//
//	v, err := c.Get(ctx, LogService{})
//	svc := v.(*LogService)
func (c *Container) Get(ctx context.Context, identifier any, args ...any) (any, error) {
	return c.resolve(ctx, identifier, args, false, "")
}

// GetAsync resolves identifier on a separate goroutine. Unlike Get it also
// resolves definitions declared Async.
//
//	v, err := c.GetAsync(ctx, "db").Await(ctx)
func (c *Container) GetAsync(ctx context.Context, identifier any, args ...any) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	return newFuture(func() (any, error) {
		return c.resolve(ctx, identifier, args, true, "")
	})
}

func (c *Container) resolve(ctx context.Context, identifier any, args []any, async bool, origin string) (any, error) {
	id, name, err := c.identify(identifier)
	if err != nil {
		return nil, err
	}
	if origin == "" {
		origin = name
	}

	if obj, ok := c.registry.GetObject(id); ok {
		return obj, nil
	}

	def := c.registry.GetDefinition(id)
	if def == nil && c.request && c.parent != nil {
		if pd := c.parent.lookupDefinition(id); pd != nil && (pd.IsRequestScope() || pd.ID == PipelineIdentifier) {
			def = pd
		}
	}
	if def == nil && c.parent != nil {
		return c.parent.resolve(ctx, id, args, async, origin)
	}
	if def == nil {
		c.factory.stats.failures.Inc(1)
		return nil, &DefinitionNotFoundError{Identifier: origin}
	}
	if def.Async && !async {
		return nil, &UseWrongMethodError{Wrong: "Get", Replacement: "GetAsync", Key: origin}
	}
	return c.factory.create(ctx, def, args, async)
}

// identify turns a lookup key into an identifier and a display name.
func (c *Container) identify(identifier any) (id, name string, err error) {
	switch t := identifier.(type) {
	case string:
		return t, t, nil
	case *definition.FunctionProvider:
		return t.ID, t.ID, nil
	case nil:
		return "", "", fmt.Errorf("container: nil identifier")
	}
	class := metadata.Target(identifier)
	if class.Kind() != reflect.Struct {
		return "", "", fmt.Errorf("container: %T is not a valid identifier", identifier)
	}
	ident, ok := annotation.IdentityOf(c.store, class)
	if !ok {
		return "", "", &DefinitionNotFoundError{Identifier: class.Name()}
	}
	return ident.UUID, class.Name(), nil
}

// lookupDefinition searches c and then its ancestors.
func (c *Container) lookupDefinition(id string) *definition.Definition {
	for cur := c; cur != nil; cur = cur.parent {
		if def := cur.registry.GetDefinition(id); def != nil {
			return def
		}
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

// HasDefinition reports whether identifier is bound in c.
func (c *Container) HasDefinition(identifier any) bool {
	id, _, err := c.identify(identifier)
	if err != nil {
		return false
	}
	return c.registry.HasDefinition(id)
}

// HasObject reports whether c holds a materialised instance for identifier.
func (c *Container) HasObject(identifier any) bool {
	id, _, err := c.identify(identifier)
	if err != nil {
		return false
	}
	if c.registry.HasObject(id) {
		return true
	}
	_, ok := c.factory.singletons.get(c.registry.Relation().Canonical(id))
	return ok
}

// AddNamespace records a loaded namespace.
func (c *Container) AddNamespace(ns string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.namespaces {
		if n == ns {
			return
		}
	}
	c.namespaces = append(c.namespaces, ns)
}

// HasNamespace reports whether ns was loaded into c.
func (c *Container) HasNamespace(ns string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.namespaces {
		if n == ns {
			return true
		}
	}
	return false
}

// Namespaces lists loaded namespaces in load order.
func (c *Container) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.namespaces...)
}

// SetAttr stores an arbitrary value on the container.
func (c *Container) SetAttr(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attrs[key] = value
}

// GetAttr returns a value stored with SetAttr.
func (c *Container) GetAttr(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.attrs[key]
	return v, ok
}

// RegisterResolver adds a resolver for a reference tag.
func (c *Container) RegisterResolver(r Resolver) {
	c.factory.RegisterResolver(r)
}

// RegisterPropertyHandler serves custom property bindings declared with
// annotation Handle for key. Request children inherit parent handlers.
func (c *Container) RegisterPropertyHandler(key string, h PropertyHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[key] = h
}

func (c *Container) propertyHandler(key string) PropertyHandler {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		h := cur.handlers[key]
		cur.mu.RUnlock()
		if h != nil {
			return h
		}
	}
	return nil
}

// ObjectIDs lists identifiers with a materialised instance, sorted.
func (c *Container) ObjectIDs() []string {
	seen := make(map[string]bool)
	for _, id := range c.registry.ObjectIDs() {
		seen[id] = true
	}
	for _, id := range c.factory.SingletonIDs() {
		seen[id] = true
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ── Teardown ──────────────────────────────────────────────────────────────────

// Stop destroys every cached instance and clears the registry. Destroy
// errors are returned joined; teardown always completes.
func (c *Container) Stop(ctx context.Context) error {
	err := c.factory.DestroyCache(ctx)
	c.registry.ClearAll()
	c.logger.Debug("container stopped")
	return err
}
