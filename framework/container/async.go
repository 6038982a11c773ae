package container

import "context"

// Future is the pending result of GetAsync.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture(run func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = run()
	}()
	return f
}

// Done is closed once the resolution has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Await blocks until the resolution finishes or ctx is done. Giving up on ctx
// does not stop the construction itself.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deferred stands in for an object whose construction was still in progress
// when a circular reference reached it before it could be allocated. Get
// returns the real object once it exists.
type Deferred struct {
	id      string
	resolve func() (any, error)
}

// ID returns the canonical identifier the cell points at.
func (d *Deferred) ID() string { return d.id }

// Get returns the finished object. It reports ErrNotReady while the object is
// still being built.
func (d *Deferred) Get() (any, error) {
	v, err := d.resolve()
	if err != nil {
		return nil, err
	}
	if _, pending := v.(*Deferred); pending {
		return nil, ErrNotReady
	}
	return v, nil
}

// MustGet is Get that panics on failure.
func (d *Deferred) MustGet() any {
	v, err := d.Get()
	if err != nil {
		panic(err)
	}
	return v
}
