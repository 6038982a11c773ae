// Package app assembles an Application: configuration, logging, metrics,
// the container, its providers and any manifests.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/config"
	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/logging"
	"github.com/km-arc/go-boot/framework/manifest"
	"github.com/km-arc/go-boot/framework/providers"
)

// Version is reported by the CLI.
const Version = "0.1.0"

// Application is the top-level application container. It embeds the
// Container so user code can call app.Bind and app.Get directly.
type Application struct {
	*container.Container
	Config    *config.Config
	Providers *container.ProviderRegistry

	catalog  *manifest.Catalog
	loader   *manifest.Loader
	logger   *zap.Logger
	stopOnce sync.Once
	stopErr  error
}

// Option configures an Application.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	catalog   *manifest.Catalog
	providers []container.ServiceProvider
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithCatalog names the classes and providers manifests may reference.
func WithCatalog(c *manifest.Catalog) Option { return func(o *options) { o.catalog = c } }

// WithProviders registers application providers after the framework ones.
func WithProviders(ps ...container.ServiceProvider) Option {
	return func(o *options) { o.providers = append(o.providers, ps...) }
}

// New creates the application and registers its providers. Manifests named
// by cfg.Manifest.Path (comma separated) are loaded last.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		l, err := logging.New(cfg)
		if err != nil {
			return nil, err
		}
		o.logger = l
	}
	if o.catalog == nil {
		o.catalog = manifest.NewCatalog()
	}

	c := container.New(
		container.WithLogger(o.logger),
		container.WithMetrics(metrics.NewRegistry()),
		container.WithValueSource(cfg),
	)
	a := &Application{
		Container: c,
		Config:    cfg,
		Providers: container.NewProviderRegistry(c),
		catalog:   o.catalog,
		loader:    manifest.NewLoader(c, o.catalog),
		logger:    o.logger,
	}

	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.InspectServiceProvider{},
	}
	for _, p := range append(core, o.providers...) {
		if err := a.Register(ctx, p); err != nil {
			return nil, err
		}
	}
	for _, path := range ManifestPaths(cfg.Manifest.Path) {
		if err := a.loader.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// ManifestPaths splits a comma separated manifest list.
func ManifestPaths(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(ctx context.Context, provider container.ServiceProvider) error {
	return a.Providers.Register(ctx, provider)
}

// LoadManifest binds the definitions of one more manifest file.
func (a *Application) LoadManifest(path string) error {
	return a.loader.LoadFile(path)
}

// Boot runs the Boot phase of every provider and starts the inspect server
// when an address is configured.
func (a *Application) Boot(ctx context.Context) error {
	if err := a.Providers.Boot(ctx); err != nil {
		return errors.Wrap(err, "app: boot providers")
	}
	if a.Config.Inspect.Addr != "" {
		if _, err := a.Get(ctx, providers.InspectKey); err != nil {
			return errors.Wrap(err, "app: start inspect server")
		}
	}
	a.logger.Info("application booted",
		zap.String("env", a.Config.App.Env),
		zap.Int("definitions", len(a.Definitions())),
		zap.Strings("namespaces", a.Namespaces()),
	)
	return nil
}

// Run boots the application if needed and blocks until ctx is done, then
// stops it.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(ctx); err != nil {
			return err
		}
	}
	<-ctx.Done()
	a.logger.Info("shutting down")
	return a.Stop(context.WithoutCancel(ctx))
}

// Stop destroys every cached object once and flushes the logger.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.Container.Stop(ctx)
		_ = a.logger.Sync()
	})
	return a.stopErr
}

// Environment returns the current environment.
func (a *Application) Environment() *config.Environment {
	return config.NewEnvironment(a.Config)
}

// Catalog returns the catalog manifests resolve class names against.
func (a *Application) Catalog() *manifest.Catalog { return a.catalog }
