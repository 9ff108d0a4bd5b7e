package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/apijudge/internal/apiclient"
	"github.com/at-ishikawa/apijudge/internal/inference"
)

func newTestRun() Run {
	startedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return Run{
		ID:         "0b9e5c2a-7d1f-4c3e-9a8b-1c2d3e4f5a6b",
		SuiteName:  "JSON Placeholder",
		Backend:    "stub",
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Second),
		Results: []CaseResult{
			{
				Name:     "user has username",
				Method:   "GET",
				Endpoint: "/users/1",
				Metadata: Metadata{Feature: "Users", Severity: "critical", Tags: []string{"smoke"}},
				Status:   StatusFail,
				Analysis: apiclient.Analysis{
					StatusCode:  200,
					Success:     true,
					Structure:   apiclient.StructureJSON,
					DataType:    "object",
					FieldsCount: 3,
					Performance: apiclient.PerformanceNormal,
				},
				SecurityIssues: []string{"Missing security header: X-Frame-Options"},
				Verdict:        &inference.ValidationResult{IsValid: false, Feedback: "username is missing"},
				MissingFields:  []string{"username"},
				Reason:         "AI validation failed",
			},
			{
				Name:     "list posts",
				Method:   "GET",
				Endpoint: "/posts",
				Status:   StatusPass,
			},
			{
				Name:     "unreachable",
				Method:   "GET",
				Endpoint: "/down",
				Status:   StatusError,
				Error:    "connection refused",
			},
		},
	}
}

func TestFileName(t *testing.T) {
	run := newTestRun()
	assert.Equal(t, "json-placeholder-20240301-100000-0b9e5c2a", FileName(run))
	assert.Equal(t, "run-20240301-100000-abc", FileName(Run{ID: "abc", SuiteName: "!!", StartedAt: run.StartedAt}))
}

func TestConsoleWriter_Write(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	require.NoError(t, NewConsoleWriter(&buf).Write(context.Background(), newTestRun()))

	output := buf.String()
	assert.Contains(t, output, "Suite JSON Placeholder (backend: stub, run: 0b9e5c2a-7d1f-4c3e-9a8b-1c2d3e4f5a6b)")
	assert.Contains(t, output, "FAIL  GET /users/1 user has username: AI validation failed")
	assert.Contains(t, output, "      AI feedback: username is missing")
	assert.Contains(t, output, "      Missing security header: X-Frame-Options")
	assert.Contains(t, output, "PASS  GET /posts list posts")
	assert.Contains(t, output, "ERROR GET /down unreachable: connection refused")
	assert.Contains(t, output, "1 passed, 1 failed, 1 errors, success rate 33.3%")
}

func TestMarkdownWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	run := newTestRun()

	require.NoError(t, MarkdownWriter{Directory: dir}.Write(context.Background(), run))

	content, err := os.ReadFile(filepath.Join(dir, FileName(run)+".md"))
	require.NoError(t, err)
	output := string(content)
	assert.Contains(t, output, "# API test report: JSON Placeholder")
	assert.Contains(t, output, "- Duration: 2.000s")
	assert.Contains(t, output, "## FAIL: user has username")
	assert.Contains(t, output, "- Reason: AI validation failed")
	assert.Contains(t, output, "- AI verdict: invalid")
	assert.Contains(t, output, "- Feedback: username is missing")
	assert.Contains(t, output, "## ERROR: unreachable")
}

func TestPDFWriter_Write(t *testing.T) {
	dir := t.TempDir()
	run := newTestRun()

	require.NoError(t, PDFWriter{Directory: dir}.Write(context.Background(), run))

	assert.FileExists(t, filepath.Join(dir, FileName(run)+".md"))
	assert.FileExists(t, filepath.Join(dir, FileName(run)+".pdf"))
}

func TestJSONWriter_Write(t *testing.T) {
	dir := t.TempDir()
	run := newTestRun()

	require.NoError(t, JSONWriter{Directory: dir}.Write(context.Background(), run))

	content, err := os.ReadFile(filepath.Join(dir, FileName(run)+".json"))
	require.NoError(t, err)

	var got struct {
		ID      string `json:"id"`
		Suite   string `json:"suite"`
		Summary Summary
		Results []struct {
			Status       string                      `json:"status"`
			AIValidation *inference.ValidationResult `json:"ai_validation"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(content, &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "JSON Placeholder", got.Suite)
	assert.Equal(t, 3, got.Summary.Total)
	require.Len(t, got.Results, 3)
	assert.Equal(t, "FAIL", got.Results[0].Status)
	require.NotNil(t, got.Results[0].AIValidation)
	assert.Equal(t, "username is missing", got.Results[0].AIValidation.Feedback)
	assert.Nil(t, got.Results[1].AIValidation)
}

func TestNewWriters(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantLen int
		wantErr bool
	}{
		{name: "all formats", formats: []string{"console", "markdown", "pdf", "json"}, wantLen: 4},
		{name: "none", wantLen: 0},
		{name: "unknown", formats: []string{"html"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewWriters(tt.formats, &bytes.Buffer{}, t.TempDir(), "")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}
