// Package executor applies compiled operations and lazy values to placed
// instances with a fixed pool of workers.
//
// Operations and values are immutable and shared by every worker. Each
// instance, and so each fixup table, is handled by exactly one worker.
package executor

import (
	"context"
	"sync"

	"github.com/vk/precomp/internal/ctxlog"
	"github.com/vk/precomp/internal/instance"
	"github.com/vk/precomp/internal/lazy"
	"github.com/vk/precomp/internal/operation"
	"github.com/vk/precomp/internal/resultstore"
)

// NamedValue is a lazy value reported under a name.
type NamedValue struct {
	Name  string
	Value lazy.Value[string]
}

type job struct {
	index int
	inst  *instance.Instance
}

// Executor runs operations and values over instances.
type Executor struct {
	ops         []*operation.Operation
	values      []NamedValue
	store       *resultstore.Store
	workerCount int
	wg          sync.WaitGroup
}

// New creates an executor. Operations are applied in the given order.
func New(ops []*operation.Operation, values []NamedValue, store *resultstore.Store, workerCount int) *Executor {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Executor{
		ops:         ops,
		values:      values,
		store:       store,
		workerCount: workerCount,
	}
}

// Run processes every instance and waits for the workers to finish. If ctx
// is cancelled, instances not yet started are marked skipped and ctx's error
// is returned.
func (e *Executor) Run(ctx context.Context, insts []*instance.Instance) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executor starting.", "instances", len(insts), "workers", e.workerCount)

	for i, inst := range insts {
		e.store.Register(ctx, i, inst.Name)
	}

	jobs := make(chan job)
	for id := 1; id <= e.workerCount; id++ {
		e.wg.Add(1)
		go e.worker(ctx, jobs, id)
	}
	for i, inst := range insts {
		jobs <- job{index: i, inst: inst}
	}
	close(jobs)
	e.wg.Wait()

	logger.Debug("Executor finished.")
	return ctx.Err()
}
