package browser

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/prerender/pkg/logging"
)

// Defaults applied by the daemon configuration; kept here so library users
// get the same behavior.
const (
	DefaultPoolSize       = 5
	DefaultAcquireTimeout = 300 * time.Second
)

// PoolOptions configures a session pool.
type PoolOptions struct {
	// Size bounds the number of concurrently live sessions. Must be >= 1.
	Size int

	// AcquireTimeout bounds how long Acquire blocks for a free session.
	// Zero fails immediately when no session is idle.
	AcquireTimeout time.Duration
}

// Pool hands out at most Size concurrently-live sessions, each to exactly
// one caller at a time. The free list is a buffered channel; closed state
// is tracked separately so shutdown never deadlocks against blocked
// acquires.
type Pool struct {
	factory        Factory
	idle           chan Driver
	size           int
	acquireTimeout time.Duration
	closed         atomic.Bool
	stop           chan struct{}
	log            *logging.Logger
}

// NewPool pre-warms a pool of opts.Size sessions. Provisioning is
// synchronous; if any session fails, the ones already created are closed
// and the whole call fails. Partial pools are never returned.
func NewPool(factory Factory, opts PoolOptions, log *logging.Logger) (*Pool, error) {
	if opts.Size < 1 {
		return nil, fmt.Errorf("pool size must be >= 1, got %d", opts.Size)
	}
	if opts.AcquireTimeout < 0 {
		return nil, fmt.Errorf("acquire timeout must not be negative, got %s", opts.AcquireTimeout)
	}

	p := &Pool{
		factory:        factory,
		idle:           make(chan Driver, opts.Size),
		size:           opts.Size,
		acquireTimeout: opts.AcquireTimeout,
		stop:           make(chan struct{}),
		log:            log,
	}

	for i := 0; i < opts.Size; i++ {
		d, err := factory.New()
		if err != nil {
			p.drainAndClose()
			return nil, fmt.Errorf("pre-warm session %d/%d: %w", i+1, opts.Size, err)
		}
		p.idle <- d
	}

	log.Infof("pool ready with %d sessions", opts.Size)
	return p, nil
}

// Acquire checks out one session. It blocks until a session is idle, the
// configured timeout elapses (ErrPoolExhausted), the context is cancelled,
// or the pool shuts down (ErrPoolClosed). No ordering is guaranteed among
// concurrent waiters.
//
// Callers must hand the session back through exactly one of Release or
// Replace, on every exit path including failures.
func (p *Pool) Acquire(ctx context.Context) (Driver, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	// Fast path so a zero timeout still succeeds when a session is idle.
	select {
	case d := <-p.idle:
		return d, nil
	default:
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case d := <-p.idle:
		return d, nil
	case <-p.stop:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire: %w", ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrPoolExhausted, p.acquireTimeout)
	}
}

// Release returns a healthy session to the idle set, unblocking one
// waiting Acquire if any. After shutdown the session is terminated
// instead, so late releases never leak a browser process.
func (p *Pool) Release(d Driver) {
	if d == nil {
		return
	}

	if p.closed.Load() {
		if err := d.Close(); err != nil {
			p.log.Warnf("close session %s after shutdown: %v", d.ID(), err)
		}
		return
	}

	select {
	case p.idle <- d:
	default:
		// Only reachable when a caller releases a session it no longer
		// owns; terminate rather than break the size bound.
		p.log.Warnf("idle set full, closing surplus session %s", d.ID())
		_ = d.Close()
	}
}

// Replace terminates a presumed-broken session and enqueues a freshly
// provisioned one in its place. Only the replacement ever re-enters the
// idle set. If provisioning fails the pool is left one session short and
// ErrPoolDegraded is returned for the host to act on.
func (p *Pool) Replace(d Driver) error {
	if d != nil {
		if err := d.Close(); err != nil {
			p.log.Warnf("close broken session %s: %v", d.ID(), err)
		}
	}

	if p.closed.Load() {
		return ErrPoolClosed
	}

	fresh, err := p.factory.New()
	if err != nil {
		p.log.Errorf("replacement session failed: %v", err)
		return fmt.Errorf("%w: %w", ErrPoolDegraded, err)
	}

	p.log.Debugf("session replaced by %s", fresh.ID())
	p.Release(fresh)
	return nil
}

// Shutdown drains the idle set once and terminates every session in it
// exactly once. It is idempotent and unblocks any callers waiting in
// Acquire. After shutdown, Acquire always fails with ErrPoolClosed.
func (p *Pool) Shutdown() error {
	if p.closed.Swap(true) {
		return nil
	}
	close(p.stop)

	var drained []Driver
drain:
	for {
		select {
		case d := <-p.idle:
			drained = append(drained, d)
		default:
			break drain
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(4)
	for _, d := range drained {
		d := d
		g.Go(func() error {
			if err := d.Close(); err != nil {
				p.log.Warnf("close session %s during shutdown: %v", d.ID(), err)
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	p.log.Infof("pool shut down, %d idle sessions terminated", len(drained))
	return err
}

// Size returns the configured pool size.
func (p *Pool) Size() int {
	return p.size
}

// Idle returns the number of sessions currently in the idle set.
func (p *Pool) Idle() int {
	if p.closed.Load() {
		return 0
	}
	return len(p.idle)
}

// drainAndClose terminates everything currently idle; used when pre-warm
// fails partway.
func (p *Pool) drainAndClose() {
	p.closed.Store(true)
	close(p.stop)
	for {
		select {
		case d := <-p.idle:
			_ = d.Close()
		default:
			return
		}
	}
}
