package providers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/config"
	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/definition"
	"github.com/km-arc/go-boot/framework/inspect"
)

// Identifiers bound by the framework providers.
const (
	ConfigKey      = "config"
	EnvironmentKey = "environment"
	LoggerKey      = "logger"
	InspectKey     = "inspect.server"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration.
//
// Bound identifiers:
//   - "config"       → *config.Config
//   - "environment"  → *config.Environment
//   - "logger"       → *zap.Logger
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	app.BindObject(ConfigKey, p.Config)
	app.BindObject(EnvironmentKey, config.NewEnvironment(p.Config))
	app.BindObject(LoggerKey, app.Logger())
	return nil
}

// ── InspectServiceProvider ────────────────────────────────────────────────────

// InspectServiceProvider serves the inspect endpoints when inspect.addr is
// set. It is deferred: the server is built on first resolution of
// "inspect.server" and shut down when the container stops.
type InspectServiceProvider struct {
	container.BaseProvider
	// ShutdownTimeout bounds the graceful shutdown. Defaults to 5s.
	ShutdownTimeout time.Duration
}

func (p *InspectServiceProvider) Register(app *container.Container) error {
	timeout := p.ShutdownTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	app.OnBeforeObjectDestroy(func(instance any, opts *container.BeforeDestroyOptions) {
		srv, ok := instance.(*inspect.Server)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			app.Logger().Warn("inspect shutdown", zap.Error(err))
		}
	})
	return app.BindClass(&definition.FunctionProvider{
		ID:    InspectKey,
		Scope: definition.Singleton,
		Provide: func(ctx context.Context, l definition.Locator, _ []any) (any, error) {
			v, err := l.Get(ctx, ConfigKey)
			if err != nil {
				return nil, err
			}
			srv := inspect.NewServer(v.(*config.Config).Inspect.Addr, app)
			if _, err := srv.Start(); err != nil {
				return nil, err
			}
			return srv, nil
		},
	})
}

func (p *InspectServiceProvider) Provides() []string { return []string{InspectKey} }
func (p *InspectServiceProvider) IsDeferred() bool   { return true }
