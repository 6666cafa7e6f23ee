package pool

import (
	"context"
	"sync"
)

// Context is the minimal capability a ContextPool manages: something that
// can be torn down and, optionally, reset before reuse. Inference
// contexts implement this; resetting KV-cache state is the caller's
// pre-condition, not the pool's (spec.md §4.G.3), so Context has no Reset
// method — only Close.
type Context interface {
	Close() error
}

// ContextFactory builds a new inference context.
type ContextFactory[T Context] func() (T, error)

// ContextPool specializes Pool over inference contexts: it grows lazily
// up to MaxSize instead of eagerly filling Capacity, and tracks a
// per-context use-count so a context is recycled after MaxUses release
// cycles (0 disables recycling); MaxUses == 1 immediately reconstructs a
// context rather than leaving the pool under capacity. The lazy growth
// and blocking acquire are grounded on
// original_source/tldr_cpp/src/lib_tldr/llm/LlmContextPool.cpp; the
// use-count recycling has no counterpart there.
type ContextPool[T Context] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	factory ContextFactory[T]
	maxSize int
	maxUses int

	idle    []*ctxEntry[T]
	created int
	closed  bool
}

type ctxEntry[T Context] struct {
	ctx   T
	uses  int
}

// NewContextPool creates an empty ContextPool that grows lazily up to
// maxSize. maxUses of 0 disables use-count recycling.
func NewContextPool[T Context](maxSize, maxUses int, factory ContextFactory[T]) *ContextPool[T] {
	p := &ContextPool[T]{factory: factory, maxSize: maxSize, maxUses: maxUses}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// ContextLease is a scoped handle over one leased inference context.
type ContextLease[T Context] struct {
	pool *ContextPool[T]
	ctx  T
	uses int
	done bool
}

// Item returns the leased context.
func (l *ContextLease[T]) Item() T { return l.ctx }

// Acquire returns an idle context if one exists; otherwise, if the pool
// has not yet grown to MaxSize, it constructs a new one; otherwise it
// blocks until a context is released.
func (p *ContextPool[T]) Acquire(ctx context.Context) (*ContextLease[T], error) {
	p.mu.Lock()

	for {
		if p.closed {
			p.mu.Unlock()
			return nil, errClosed()
		}

		if len(p.idle) > 0 {
			last := len(p.idle) - 1
			entry := p.idle[last]
			p.idle = p.idle[:last]
			p.mu.Unlock()
			return &ContextLease[T]{pool: p, ctx: entry.ctx, uses: entry.uses}, nil
		}

		if p.created < p.maxSize {
			p.created++
			p.mu.Unlock()

			built, err := p.factory()
			if err != nil {
				p.mu.Lock()
				p.created--
				p.mu.Unlock()
				return nil, err
			}
			return &ContextLease[T]{pool: p, ctx: built, uses: 0}, nil
		}

		if done, err := waitOrDone(ctx, p.cond); done {
			p.mu.Unlock()
			return nil, err
		}
	}
}

// Release returns the leased context to the pool, applying the use-count
// recycle policy: once uses reaches MaxUses (when MaxUses > 0), the
// context is destroyed; if MaxUses == 1, a replacement is constructed
// immediately so the pool stays warm at its prior size.
func (l *ContextLease[T]) Release() {
	if l.done {
		return
	}
	l.done = true

	p := l.pool
	l.uses++

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		l.ctx.Close()
		return
	}

	if p.maxUses > 0 && l.uses >= p.maxUses {
		p.mu.Unlock()
		l.ctx.Close()

		if p.maxUses == 1 {
			p.recreate()
		} else {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
		}

		p.mu.Lock()
		p.cond.Signal()
		p.mu.Unlock()
		return
	}

	p.idle = append(p.idle, &ctxEntry[T]{ctx: l.ctx, uses: l.uses})
	p.cond.Signal()
	p.mu.Unlock()
}

// recreate constructs a fresh context and returns it to the idle set,
// keeping created count unchanged (one context destroyed, one rebuilt).
func (p *ContextPool[T]) recreate() {
	built, err := p.factory()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		// Could not keep the pool warm; drop the reserved slot so a
		// future Acquire can grow into it instead of leaking capacity.
		p.created--
		return
	}
	p.idle = append(p.idle, &ctxEntry[T]{ctx: built, uses: 0})
}

// Close tears down every idle context and unblocks any pending Acquire
// calls. Contexts still checked out are destroyed as they are released.
func (p *ContextPool[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, entry := range p.idle {
		entry.ctx.Close()
	}
	p.idle = nil

	p.cond.Broadcast()
}

// Size reports how many contexts currently exist (idle + checked out).
func (p *ContextPool[T]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

func errClosed() error {
	return &closedPoolError{}
}

type closedPoolError struct{}

func (*closedPoolError) Error() string { return "context pool is closed" }
