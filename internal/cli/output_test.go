package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSON(t *testing.T) {
	tests := []struct {
		name  string
		write func(f *OutputFormatter) error
		check func(t *testing.T, resp CLIResponse)
	}{
		{
			name:  "success",
			write: func(f *OutputFormatter) error { return f.Success(map[string]string{"result": "ok"}) },
			check: func(t *testing.T, resp CLIResponse) {
				assert.Equal(t, "ok", resp.Status)
				assert.Equal(t, map[string]any{"result": "ok"}, resp.Data)
				assert.Nil(t, resp.Error)
			},
		},
		{
			name:  "error",
			write: func(f *OutputFormatter) error { return f.Error(ErrCodeNoCard, "user 7 has no card", nil) },
			check: func(t *testing.T, resp CLIResponse) {
				assert.Equal(t, "error", resp.Status)
				require.NotNil(t, resp.Error)
				assert.Equal(t, ErrCodeNoCard, resp.Error.Code)
				assert.Equal(t, "user 7 has no card", resp.Error.Message)
				assert.Nil(t, resp.Error.Details)
			},
		},
		{
			name: "error with details",
			write: func(f *OutputFormatter) error {
				return f.Error(ErrCodeConfig, "config invalid", map[string]string{"file": "vizitka.yaml"})
			},
			check: func(t *testing.T, resp CLIResponse) {
				require.NotNil(t, resp.Error)
				assert.Equal(t, map[string]any{"file": "vizitka.yaml"}, resp.Error.Details)
			},
		},
		{
			name: "respond",
			write: func(f *OutputFormatter) error {
				return f.Respond(CLIResponse{Status: "error", Data: 3, Error: &CLIError{Code: ErrCodeTestFailed}})
			},
			check: func(t *testing.T, resp CLIResponse) {
				assert.Equal(t, float64(3), resp.Data)
				assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			require.NoError(t, tt.write(&OutputFormatter{Format: "json", Writer: buf}))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			tt.check(t, resp)
		})
	}
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success("✓ Config valid"))
	require.NoError(t, f.Error(ErrCodeConfig, "config invalid", map[string]string{"file": "x"}))

	assert.Equal(t, "✓ Config valid\nError [E_CONFIG]: config invalid\n", buf.String(),
		"details are only printed in verbose mode")

	buf.Reset()
	f.Verbose = true
	require.NoError(t, f.Error(ErrCodeConfig, "config invalid", "log.level"))
	assert.Contains(t, buf.String(), "Details: log.level")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		errWriter bool
		wantOut   string
		wantErr   string
	}{
		{"quiet", false, true, "", ""},
		{"verbose to stderr", true, true, "", "opening vizitka.db\n"},
		{"verbose without stderr falls back", true, false, "opening vizitka.db\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: out, Verbose: tt.verbose}
			if tt.errWriter {
				f.ErrWriter = errOut
			}

			f.VerboseLog("opening %s", "vizitka.db")
			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, tt.wantErr, errOut.String())
		})
	}
}

func TestOutputFormatter_JSONKeepsMarkup(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"name": "<b>Ali</b>"}))
	assert.Contains(t, buf.String(), "<b>Ali</b>")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad config"))))

	err := WrapExitError(ExitFailure, "no card", errors.New("user 42"))
	assert.Equal(t, "no card: user 42", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "user 42")
}
