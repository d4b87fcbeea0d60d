// Package resultstore provides an ephemeral, thread-safe, in-memory store for
// the per-instance results of a run.
//
// # Purpose
//
// Workers record each instance's status, final fixups, resolved values and
// failure here while the run is in progress. The report is built from the
// store once every worker has finished.
//
// # Concurrency Model
//
// The store uses sync.Map: every instance is written by exactly one worker,
// keys are independent and known up front, and the report reads only after
// the writes are done. No global lock is needed.
package resultstore

import (
	"context"
	"sort"
	"sync"
)

// Status is the processing state of one instance.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusDone
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Entry is one name/value pair of a result.
type Entry struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Output is what an instance produced: its fixups after every operation ran
// and the value of every lazy value resolved against it.
type Output struct {
	Fixups []Entry
	Values []Entry
}

// Result gathers everything recorded for one instance.
type Result struct {
	Index    int
	Instance string
	Status   Status
	Output   *Output
	Err      error
}

// Store keeps results keyed by the instance's position in the input, so
// instances sharing a name stay distinct.
type Store struct {
	names   sync.Map // Key: int index, Value: string
	states  sync.Map // Key: int index, Value: Status
	outputs sync.Map // Key: int index, Value: *Output
	errors  sync.Map // Key: int index, Value: error
}

// New creates a new, empty result store.
func New() *Store {
	return &Store{}
}

// Register records an instance so it appears in All even if it is never run.
func (s *Store) Register(ctx context.Context, index int, name string) {
	s.names.Store(index, name)
	s.states.LoadOrStore(index, StatusPending)
}

// SetStatus updates the processing state of an instance.
func (s *Store) SetStatus(ctx context.Context, index int, status Status) {
	s.states.Store(index, status)
}

// GetStatus returns the state of an instance, StatusPending if none is set.
func (s *Store) GetStatus(ctx context.Context, index int) Status {
	status, ok := s.states.Load(index)
	if !ok {
		return StatusPending
	}
	return status.(Status)
}

// SetOutput records what an instance produced.
func (s *Store) SetOutput(ctx context.Context, index int, output *Output) {
	s.outputs.Store(index, output)
}

// GetOutput returns the recorded output, or nil.
func (s *Store) GetOutput(ctx context.Context, index int) *Output {
	output, ok := s.outputs.Load(index)
	if !ok {
		return nil
	}
	return output.(*Output)
}

// SetError records why an instance failed or was skipped.
func (s *Store) SetError(ctx context.Context, index int, err error) {
	s.errors.Store(index, err)
}

// GetError returns the recorded error, or nil.
func (s *Store) GetError(ctx context.Context, index int) error {
	err, ok := s.errors.Load(index)
	if !ok {
		return nil
	}
	return err.(error)
}

// All returns a snapshot of every registered instance, ordered by index.
func (s *Store) All(ctx context.Context) []*Result {
	var results []*Result
	s.names.Range(func(key, value any) bool {
		index := key.(int)
		results = append(results, &Result{
			Index:    index,
			Instance: value.(string),
			Status:   s.GetStatus(ctx, index),
			Output:   s.GetOutput(ctx, index),
			Err:      s.GetError(ctx, index),
		})
		return true
	})
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}
