// Package pool implements a bounded pool of reusable resources with
// blocking acquire, per spec.md §4.F, and a ContextPool specialization
// over inference contexts with lazy growth and use-count based recycling,
// per spec.md §4.G.
//
// Grounded in shape on the teacher's ipc.WorkerPool/PythonService — a
// fixed-size set of long-lived external handles whose Close tears every
// member down — but reworked from round-robin dispatch to blocking
// mutex+condvar acquire/release, since the spec requires callers to block
// when the pool is exhausted rather than load-balance across it.
package pool

import (
	"context"
	"sync"

	"github.com/GonzoDMX/rag-anywhere/internal/errs"
)

// Factory constructs a new pooled resource.
type Factory[T any] func() (T, error)

// Deleter releases a pooled resource's underlying handle on teardown.
type Deleter[T any] func(T)

// Pool is a fixed-capacity set of reusable resources of type T, guarded
// by a single mutex and condition variable. Acquire blocks until a slot
// is free or the pool is torn down; Release returns an item for reuse.
type Pool[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	factory  Factory[T]
	deleter  Deleter[T]
	capacity int

	idle   []T
	inUse  int
	closed bool
}

// New creates a Pool of the given capacity, eagerly constructing capacity
// items via factory. If any construction fails, already-built items are
// torn down via deleter and the error is returned.
func New[T any](capacity int, factory Factory[T], deleter Deleter[T]) (*Pool[T], error) {
	p := &Pool[T]{factory: factory, deleter: deleter, capacity: capacity}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < capacity; i++ {
		item, err := factory()
		if err != nil {
			for _, built := range p.idle {
				deleter(built)
			}
			return nil, errs.Wrap(errs.EngineError, "construct pooled resource", err)
		}
		p.idle = append(p.idle, item)
	}

	return p, nil
}

// Acquire blocks until an item is available or ctx is done or the pool is
// closed. Callers must call Release (directly, or via Lease.Release) on
// every exit path.
func (p *Pool[T]) Acquire(ctx context.Context) (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.idle) == 0 && !p.closed {
		if done, err := waitOrDone(ctx, p.cond); done {
			var zero T
			return zero, err
		}
	}

	if p.closed {
		var zero T
		return zero, errs.New(errs.InvariantViolation, "acquire from closed pool")
	}

	last := len(p.idle) - 1
	item := p.idle[last]
	p.idle = p.idle[:last]
	p.inUse++

	return item, nil
}

// Release returns item to the idle set and wakes one blocked acquirer.
func (p *Pool[T]) Release(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.deleter(item)
		return
	}

	p.idle = append(p.idle, item)
	p.inUse--
	p.cond.Signal()
}

// InUse reports how many items are currently checked out, for tests and
// diagnostics.
func (p *Pool[T]) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inUse
}

// Close marks the pool torn down, destroys every idle item via deleter,
// and wakes every blocked acquirer so none deadlocks waiting for a slot
// that will never come free. Items still checked out are destroyed as
// they are returned.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, item := range p.idle {
		p.deleter(item)
	}
	p.idle = nil

	p.cond.Broadcast()
}

// Lease is a scoped handle over one pooled item; Release returns it to
// the pool exactly once even if called more than once.
type Lease[T any] struct {
	pool *Pool[T]
	item T
	done bool
}

// AcquireLease is Acquire wrapped in a Lease for defer-friendly release.
func AcquireLease[T any](ctx context.Context, p *Pool[T]) (*Lease[T], error) {
	item, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Lease[T]{pool: p, item: item}, nil
}

// Item returns the leased resource.
func (l *Lease[T]) Item() T { return l.item }

// Release returns the leased resource to its pool. Safe to call more than
// once; only the first call has an effect.
func (l *Lease[T]) Release() {
	if l.done {
		return
	}
	l.done = true
	l.pool.Release(l.item)
}

// waitOrDone waits on cond, unless ctx has a Done channel that fires
// first, in which case it reports done=true with ctx.Err(). The plain
// condition variable path (ctx == nil or ctx without cancellation) never
// reports done.
func waitOrDone(ctx context.Context, cond *sync.Cond) (bool, error) {
	if ctx == nil || ctx.Done() == nil {
		cond.Wait()
		return false, nil
	}

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	default:
	}

	// sync.Cond has no context-aware wait; a goroutine nudges the
	// waiter once ctx is done by broadcasting on cancellation so the
	// loop re-checks ctx.Done() above on its next iteration.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cond.L.Lock()
			cond.Broadcast()
			cond.L.Unlock()
		case <-done:
		}
	}()
	cond.Wait()
	close(done)

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	default:
		return false, nil
	}
}
