package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/precomp/internal/config"
	"github.com/vk/precomp/internal/ctxlog"
	"github.com/vk/precomp/internal/executor"
	"github.com/vk/precomp/internal/instance"
	"github.com/vk/precomp/internal/operation"
	"github.com/vk/precomp/internal/resultstore"
)

// Run loads the configured files, processes every instance and writes the
// report. Configuration problems wrap ErrInvalidConfig.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	model, err := a.load(ctx)
	if err != nil {
		return err
	}

	ops, err := a.compileOperations(ctx, model.Operations)
	if err != nil {
		return err
	}
	values, err := a.buildValues(ctx, model.Values)
	if err != nil {
		return err
	}

	insts := make([]*instance.Instance, 0, len(model.Instances))
	for _, def := range model.Instances {
		insts = append(insts, instance.FromConfig(def))
	}

	store := resultstore.New()
	if len(insts) > 0 {
		a.logger.Info("Starting concurrent execution.",
			"operations", len(ops), "values", len(values), "instances", len(insts), "workers", a.config.WorkerCount)
		exec := executor.New(ops, values, store, a.config.WorkerCount)
		if err := exec.Run(ctx, insts); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		a.logger.Info("Execution finished.")
	} else {
		a.logger.Warn("No instances found, execution not required.")
	}

	results := store.All(ctx)
	if err := writeReport(a.outW, a.config.OutputFormat, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// load asks every loader for the configured paths and merges the models.
func (a *App) load(ctx context.Context) (*config.Model, error) {
	if len(a.loaders) == 0 {
		return nil, fmt.Errorf("%w: no loaders configured", ErrInvalidConfig)
	}

	model := &config.Model{}
	for _, loader := range a.loaders {
		m, err := loader.Load(ctx, a.config.Paths...)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load configuration: %w", ErrInvalidConfig, err)
		}
		model.Merge(m)
	}

	if len(model.Operations)+len(model.Instances)+len(model.Values) == 0 {
		return nil, fmt.Errorf("%w: no operations, instances or values found in %v", ErrInvalidConfig, a.config.Paths)
	}
	a.logger.Debug("Configuration loaded.",
		"operations", len(model.Operations), "instances", len(model.Instances), "values", len(model.Values))
	return model, nil
}

// compileOperations compiles every block in order. A block that fails is
// skipped with a warning, or stops the run in strict mode.
func (a *App) compileOperations(ctx context.Context, blocks []*config.Block) ([]*operation.Operation, error) {
	ops := make([]*operation.Operation, 0, len(blocks))
	for _, block := range blocks {
		op, err := operation.Compile(ctx, block)
		if err != nil {
			if err := a.reject(err, "Skipping invalid operation.", "operation", block.Name, "source", block.Source); err != nil {
				return nil, err
			}
			continue
		}
		a.logger.Debug("Operation compiled.", "operation", op.String())
		ops = append(ops, op)
	}
	return ops, nil
}

func (a *App) buildValues(ctx context.Context, defs []*config.Value) ([]executor.NamedValue, error) {
	values := make([]executor.NamedValue, 0, len(defs))
	for _, def := range defs {
		v, err := buildValue(def)
		if err != nil {
			if err := a.reject(err, "Skipping invalid value.", "value", def.Name, "source", def.Source); err != nil {
				return nil, err
			}
			continue
		}
		a.logger.Debug("Value built.", "value", def.Name, "expr", v.String(), "constant", !v.HasFixups())
		values = append(values, executor.NamedValue{Name: def.Name, Value: v})
	}
	return values, nil
}

// reject returns err as a configuration error in strict mode and logs it
// otherwise.
func (a *App) reject(err error, msg string, args ...any) error {
	if a.config.Strict {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	a.logger.Warn(msg, append(args, slog.Any("error", err))...)
	return nil
}

// IsConfigError reports whether err was caused by the configuration files.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
