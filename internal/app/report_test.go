package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/precomp/internal/resultstore"
)

func TestWriteReport_Text(t *testing.T) {
	// --- Arrange ---
	results := []*resultstore.Result{
		{Instance: "a", Status: resultstore.StatusDone, Output: &resultstore.Output{
			Fixups: []resultstore.Entry{{Name: "x", Value: "1"}},
		}},
		{Instance: "b", Status: resultstore.StatusFailed, Err: errors.New("boom")},
	}
	var buf bytes.Buffer

	// --- Act ---
	err := writeReport(&buf, OutputText, results)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "a [done]\n  fixups:\n    x = 1\nb [failed]\n  error: boom\n", buf.String())
}

func TestWriteReport_JSONKeepsEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	err := writeReport(&buf, OutputJSON, []*resultstore.Result{{Instance: "a", Status: resultstore.StatusSkipped, Err: context.Canceled}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"instances":[{"instance":"a","status":"skipped","error":"context canceled","fixups":[],"values":[]}]}`, buf.String())
}

func TestWriteReport_UnknownFormat(t *testing.T) {
	err := writeReport(&bytes.Buffer{}, "xml", nil)
	assert.ErrorContains(t, err, "unknown output format")
}
