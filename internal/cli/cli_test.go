package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/precomp/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      string
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy path with all flags",
			args: []string{
				"-config", "/test/grid",
				"--log-level=debug",
				"--log-format=json",
				"--workers=16",
				"--strict",
				"--output=YAML",
			},
			expectedConfig: &app.Config{
				Paths:        []string{"/test/grid"},
				LogLevel:     "debug",
				LogFormat:    "json",
				WorkerCount:  16,
				Strict:       true,
				OutputFormat: "yaml",
			},
		},
		{
			name: "Shorthand flag and defaults",
			args: []string{"-c", "/short/path"},
			expectedConfig: &app.Config{
				Paths:        []string{"/short/path"},
				LogLevel:     "info",
				LogFormat:    "text",
				WorkerCount:  4,
				OutputFormat: "text",
			},
		},
		{
			name: "Flag and positional paths combine",
			args: []string{"-c", "/a", "/b", "/c"},
			expectedConfig: &app.Config{
				Paths:        []string{"/a", "/b", "/c"},
				LogLevel:     "info",
				LogFormat:    "text",
				WorkerCount:  4,
				OutputFormat: "text",
			},
		},
		{
			name:       "No path prints usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				assert.Contains(t, output, "Usage:")
				assert.Contains(t, output, "-strict")
			},
		},
		{
			name:       "Help flag",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				assert.Contains(t, output, "Usage:")
			},
		},
		{name: "Unknown flag", args: []string{"-nope"}, expectErr: "flag provided but not defined"},
		{name: "Invalid log format", args: []string{"-log-format=xml", "a"}, expectErr: "invalid log-format"},
		{name: "Invalid log level", args: []string{"-log-level=loud", "a"}, expectErr: "invalid log-level"},
		{name: "Invalid workers", args: []string{"-workers=0", "a"}, expectErr: "invalid workers"},
		{name: "Invalid output", args: []string{"-output=xml", "a"}, expectErr: "invalid output format"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			var out bytes.Buffer

			// --- Act ---
			cfg, shouldExit, err := Parse(tc.args, &out)

			// --- Assert ---
			if tc.expectErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectExit, shouldExit)
			if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"exit error", &ExitError{Code: 3, Message: "x"}, 3},
		{"config error", fmt.Errorf("%w: bad block", app.ErrInvalidConfig), 2},
		{"run error", errors.New("execution failed"), 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
