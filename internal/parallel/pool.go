package parallel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by Run after Close.
var ErrPoolClosed = errors.New("parallel: pool is closed")

// Task is one unit of work. worker is the id of the executing worker, in
// [0, Pool.Size()); i is the index of the unit within its Run call.
type Task func(ctx context.Context, worker, i int) error

type job struct {
	ctx  context.Context
	i    int
	task Task
	done func(error)
}

// Pool is a fixed set of long-lived workers. Each worker owns one id for its
// lifetime, so callers can key per-worker scratch state by that id and
// never share it between concurrently running units.
//
// The pool is constructed and torn down by its owner:
//
//	pool := parallel.NewPool(0) // one worker per available CPU
//	defer pool.Close()
//	err := pool.Run(ctx, len(batches), func(ctx context.Context, worker, i int) error {
//	    return step(states[worker], batches[i])
//	})
type Pool struct {
	size   int
	jobs   chan job
	group  errgroup.Group
	closed atomic.Bool
	once   sync.Once
	err    error
}

// NewPool starts a pool of the given size. A non-positive size selects
// AvailableParallelism().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = AvailableParallelism()
	}
	p := &Pool{size: workers, jobs: make(chan job)}
	for id := 0; id < workers; id++ {
		p.group.Go(func() error {
			for j := range p.jobs {
				j.done(execute(j, id))
			}
			return nil
		})
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Run submits n units and blocks until every submitted unit has finished.
// The context is checked before each submission; once it is cancelled or a
// unit fails, no further units are submitted. Run returns the first unit
// error, or the context error if the caller cancelled.
//
// Run may be called from several goroutines; it must not race with Close.
func (p *Pool) Run(ctx context.Context, n int, task Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	done := func(err error) {
		if err != nil {
			mu.Lock()
			if first == nil {
				first = err
				cancel()
			}
			mu.Unlock()
		}
		wg.Done()
	}

submit:
	for i := 0; i < n; i++ {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		select {
		case p.jobs <- job{ctx: runCtx, i: i, task: task, done: done}:
		case <-runCtx.Done():
			wg.Done()
			break submit
		}
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if first != nil {
		return first
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "parallel: run cancelled")
	}
	return nil
}

// Close stops the workers and waits for them to exit. It is idempotent.
func (p *Pool) Close() error {
	p.once.Do(func() {
		p.closed.Store(true)
		close(p.jobs)
		p.err = p.group.Wait()
	})
	return p.err
}

func execute(j job, worker int) (err error) {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("parallel: worker %d: unit %d panicked: %v", worker, j.i, r)
		}
	}()
	return j.task(j.ctx, worker, j.i)
}
