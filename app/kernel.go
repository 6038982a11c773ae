// Package app is the sample zoo application: its classes, the provider that
// binds them and the bootstrap the CLI runs.
package app

import (
	"context"

	"github.com/km-arc/go-boot/framework/app"
	"github.com/km-arc/go-boot/framework/config"
)

// Bootstrap creates the zoo application from cfg.
//
//	a, err := app.Bootstrap(ctx, config.Load())
//	a.Run(ctx)
func Bootstrap(ctx context.Context, cfg *config.Config, opts ...app.Option) (*app.Application, error) {
	opts = append([]app.Option{
		app.WithCatalog(Catalog()),
		app.WithProviders(&ZooProvider{}),
	}, opts...)
	return app.New(ctx, cfg, opts...)
}
