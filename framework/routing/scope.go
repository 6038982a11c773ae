package routing

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/container"
)

type scopeKey struct{}

// RequestScope creates a request child of app for every request. Handlers
// reach it through Container. The child is stopped when the handler
// returns, destroying whatever it materialized.
func RequestScope(app *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			child := app.CreateChild(r)
			defer func() {
				if err := child.Stop(context.WithoutCancel(r.Context())); err != nil {
					app.Logger().Warn("request scope stop failed", zap.Error(err))
				}
			}()
			ctx := context.WithValue(r.Context(), scopeKey{}, child)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Container returns the request child installed by RequestScope, or nil.
func Container(r *http.Request) *container.Container {
	c, _ := r.Context().Value(scopeKey{}).(*container.Container)
	return c
}
