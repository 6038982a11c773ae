package container

import (
	"context"
	"fmt"
	"reflect"
)

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Get and type-asserts the result. Without an identifier the
// class is taken from T, which must then be a pointer to a bound struct.
//
//	// Instead of: v, err := c.Get(ctx, "logService"); svc := v.(*LogService)
//	// Write:      svc, err := container.Resolve[*LogService](ctx, c)
func Resolve[T any](ctx context.Context, c *Container, identifier ...any) (T, error) {
	var zero T
	id, err := identifierFor[T](identifier)
	if err != nil {
		return zero, err
	}
	instance, err := c.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	return assertAs[T](id, instance)
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](ctx context.Context, c *Container, identifier ...any) T {
	v, err := Resolve[T](ctx, c, identifier...)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveAsync is Resolve on the async path. It waits for the result.
func ResolveAsync[T any](ctx context.Context, c *Container, identifier ...any) (T, error) {
	var zero T
	id, err := identifierFor[T](identifier)
	if err != nil {
		return zero, err
	}
	instance, err := c.GetAsync(ctx, id).Await(ctx)
	if err != nil {
		return zero, err
	}
	return assertAs[T](id, instance)
}

func identifierFor[T any](identifier []any) (any, error) {
	if len(identifier) > 0 && identifier[0] != nil {
		return identifier[0], nil
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		return t.Elem(), nil
	}
	return nil, fmt.Errorf("container: cannot derive an identifier from %s", t)
}

func assertAs[T any](id, instance any) (T, error) {
	typed, ok := instance.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("container: [%v] resolved to %T, not %s", id, instance, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
