package executor

import (
	"context"
	"fmt"

	"github.com/vk/precomp/internal/ctxlog"
	"github.com/vk/precomp/internal/resultstore"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, jobs <-chan job, workerID int) {
	defer e.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range jobs {
		workerLogger := logger.With("workerID", workerID, "instance", j.inst.Name)

		if err := ctx.Err(); err != nil {
			e.store.SetStatus(ctx, j.index, resultstore.StatusSkipped)
			e.store.SetError(ctx, j.index, err)
			continue
		}

		workerLogger.Debug("Worker picked up instance.")
		e.store.SetStatus(ctx, j.index, resultstore.StatusRunning)

		output, err := e.process(j)
		if err != nil {
			workerLogger.Error("Instance processing failed.", "error", err)
			e.store.SetStatus(ctx, j.index, resultstore.StatusFailed)
			e.store.SetError(ctx, j.index, err)
			continue
		}

		e.store.SetOutput(ctx, j.index, output)
		e.store.SetStatus(ctx, j.index, resultstore.StatusDone)
		workerLogger.Debug("Instance processed.", "fixups", len(output.Fixups), "values", len(output.Values))
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// process applies every operation, then resolves every value. A panic while
// doing so fails the instance instead of the run.
func (e *Executor) process(j job) (output *resultstore.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			output, err = nil, fmt.Errorf("panic while processing instance %q: %v", j.inst.Name, r)
		}
	}()

	for _, op := range e.ops {
		op.Apply(j.inst)
	}

	output = &resultstore.Output{}
	for _, v := range e.values {
		output.Values = append(output.Values, resultstore.Entry{Name: v.Name, Value: v.Value.Resolve(j.inst)})
	}
	for name, value := range j.inst.Fixups().All() {
		output.Fixups = append(output.Fixups, resultstore.Entry{Name: name, Value: value})
	}
	return output, nil
}
