package resultstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Status of an instance that was never touched
	assert.Equal(t, StatusPending, s.GetStatus(ctx, 3))

	s.SetStatus(ctx, 3, StatusRunning)
	assert.Equal(t, StatusRunning, s.GetStatus(ctx, 3))
	assert.Equal(t, "running", s.GetStatus(ctx, 3).String())
}

func TestSetAndGetOutput(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Nil(t, s.GetOutput(ctx, 0))

	want := &Output{Fixups: []Entry{{Name: "out", Value: "6"}}}
	s.SetOutput(ctx, 0, want)
	assert.Same(t, want, s.GetOutput(ctx, 0))
}

func TestSetAndGetError(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.NoError(t, s.GetError(ctx, 0))

	want := errors.New("boom")
	s.SetError(ctx, 0, want)
	assert.Equal(t, want, s.GetError(ctx, 0))
}

func TestAll_OrderedSnapshot(t *testing.T) {
	// --- Arrange ---
	s := New()
	ctx := context.Background()
	s.Register(ctx, 2, "c")
	s.Register(ctx, 0, "a")
	s.Register(ctx, 1, "a")
	s.SetStatus(ctx, 0, StatusDone)
	s.SetOutput(ctx, 0, &Output{})
	s.SetStatus(ctx, 2, StatusFailed)
	s.SetError(ctx, 2, errors.New("bad"))

	// --- Act ---
	all := s.All(ctx)

	// --- Assert ---
	require.Len(t, all, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{all[0].Index, all[1].Index, all[2].Index})
	assert.Equal(t, StatusDone, all[0].Status)
	assert.NotNil(t, all[0].Output)
	assert.Equal(t, StatusPending, all[1].Status)
	assert.Equal(t, "a", all[1].Instance)
	assert.EqualError(t, all[2].Err, "bad")
}

func TestRegister_KeepsExistingStatus(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.SetStatus(ctx, 0, StatusDone)
	s.Register(ctx, 0, "a")
	assert.Equal(t, StatusDone, s.GetStatus(ctx, 0))
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	const n = 100

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Register(ctx, i, fmt.Sprintf("inst-%d", i))
			s.SetStatus(ctx, i, StatusRunning)
			s.SetOutput(ctx, i, &Output{Values: []Entry{{Name: "i", Value: fmt.Sprint(i)}}})
			s.SetStatus(ctx, i, StatusDone)
		}()
	}
	wg.Wait()

	all := s.All(ctx)
	require.Len(t, all, n)
	for i, r := range all {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, StatusDone, r.Status)
		assert.Equal(t, fmt.Sprint(i), r.Output.Values[0].Value)
	}
}
