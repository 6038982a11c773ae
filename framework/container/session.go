package container

import (
	"context"
	"sync"
	"sync/atomic"
)

// session identifies one top-level resolution and everything it triggers.
// It travels in the context so nested Get calls are recognised as part of
// the chain that already holds a factory's build lock.
type session struct{ id uint64 }

type sessionKey struct{}

var sessionSeq atomic.Uint64

func withSession(ctx context.Context) (context.Context, *session) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s, ok := ctx.Value(sessionKey{}).(*session); ok {
		return ctx, s
	}
	s := &session{id: sessionSeq.Add(1)}
	return context.WithValue(ctx, sessionKey{}, s), s
}

// buildLock serialises construction in one factory. It is re-entrant for the
// session that holds it, so a chain resolving its own dependencies never
// blocks on itself.
type buildLock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner *session
	depth int
}

func newBuildLock() *buildLock {
	l := &buildLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *buildLock) acquire(s *session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.owner != nil && l.owner != s {
		l.cond.Wait()
	}
	l.owner = s
	l.depth++
}

func (l *buildLock) release(s *session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != s {
		return
	}
	l.depth--
	if l.depth == 0 {
		l.owner = nil
		l.cond.Broadcast()
	}
}
