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

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"schema": "https://example.com/m/schema/1"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("MISSING_RESOURCE", "resource not found", map[string]string{"iri": "urn:x"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_RESOURCE", resp.Error.Code)
	assert.Equal(t, "resource not found", resp.Error.Message)
	assert.Equal(t, map[string]any{"iri": "urn:x"}, resp.Error.Details)
}

func TestOutputFormatter_JSONWithError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.JSON(map[string]int{"failed": 2}, &CLIError{Code: "E_TEST_FAILED", Message: "2 scenario(s) failed"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, map[string]any{"failed": float64(2)}, resp.Data)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestOutputFormatter_JSONKeepsIRIsReadable(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.JSON(map[string]string{"iri": "https://example.com/a?b=1&c=<2>"}, nil))
	assert.Contains(t, buf.String(), "&c=<2>")
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("All scripts valid"))
	assert.Contains(t, buf.String(), "All scripts valid")
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			err := formatter.Error("E103", "unknown operation", map[string]string{"step": "2"})
			require.NoError(t, err)
			assert.Contains(t, buf.String(), "Error [E103]: unknown operation")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Replaying %s", "https://example.com/m/schema/1")

			assert.Empty(t, out.String(), "diagnostics never reach the JSON writer")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Replaying https://example.com/m/schema/1")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestGetErrWriterFallsBackToWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: buf}
	assert.Same(t, buf, formatter.GetErrWriter())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk I/O error")

	plain := NewExitError(ExitFailure, "verification failed")
	assert.Equal(t, "verification failed", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := WrapExitError(ExitCommandError, "failed to open database", cause)
	assert.Equal(t, "failed to open database: disk I/O error", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("run: %w", wrapped)))
	assert.Equal(t, ExitFailure, GetExitCode(plain))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
}
