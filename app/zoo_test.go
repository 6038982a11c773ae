package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	zoo "github.com/km-arc/go-boot/app"
	"github.com/km-arc/go-boot/framework/app"
	"github.com/km-arc/go-boot/framework/config"
	"github.com/km-arc/go-boot/framework/container"
)

func bootstrap(t *testing.T) (*zoo.LogService, func() error) {
	t.Helper()
	ctx := context.Background()
	cfg := &config.Config{App: config.AppConfig{Name: "Zoo", Env: "test"}}
	a, err := zoo.Bootstrap(ctx, cfg, app.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, a.Boot(ctx))

	svc, err := container.Resolve[*zoo.LogService](ctx, a.Container, "logService")
	require.NoError(t, err)
	return svc, func() error { return a.Stop(ctx) }
}

func TestBootstrap_WiresTheZoo(t *testing.T) {
	svc, stop := bootstrap(t)

	assert.True(t, svc.Ready())
	assert.Equal(t, "[Zoo] cat: meow, dog: woof", svc.Report())

	require.NoError(t, stop())
	assert.True(t, svc.Dog.Closed())
}

func TestBootstrap_Manifest(t *testing.T) {
	ctx := context.Background()
	t.Setenv("KEEPERS_NAME", "Sam")
	cfg := &config.Config{
		App:      config.AppConfig{Name: "Zoo", Env: "test"},
		Manifest: config.ManifestConfig{Path: "manifests/keepers.yaml"},
	}
	a, err := zoo.Bootstrap(ctx, cfg, app.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Stop(ctx)

	k, err := container.Resolve[*zoo.Keeper](ctx, a.Container, "keepers:keeper")
	require.NoError(t, err)
	assert.Equal(t, "Sam walks dog in the morning", k.Greet())
	assert.True(t, a.HasObject("logService"), "dependsOn builds logService first")

	shared, err := container.Resolve[*zoo.Dog](ctx, a.Container, "zoo:dog")
	require.NoError(t, err)
	assert.Same(t, shared, k.Dog)

	t1, err := a.Get(ctx, "ticket")
	require.NoError(t, err)
	t2, err := a.Get(ctx, "ticket")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestVisitor_PerRequest(t *testing.T) {
	ctx := context.Background()
	a, err := zoo.Bootstrap(ctx, &config.Config{App: config.AppConfig{Name: "Zoo"}}, app.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer a.Stop(ctx)

	first := a.CreateChild("req-1")
	second := a.CreateChild("req-2")

	v1, err := container.Resolve[*zoo.Visitor](ctx, first, "visitor")
	require.NoError(t, err)
	again, err := container.Resolve[*zoo.Visitor](ctx, first, "visitor")
	require.NoError(t, err)
	v2, err := container.Resolve[*zoo.Visitor](ctx, second, "visitor")
	require.NoError(t, err)

	assert.Same(t, v1, again)
	assert.NotSame(t, v1, v2)
	assert.Equal(t, "req-1", v1.Request)
	assert.Equal(t, "req-2", v2.Request)
	assert.NotEqual(t, v1.Ticket, v2.Ticket)
}
