package assets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportTemplate(t *testing.T) {
	tests := []struct {
		name         string
		templatePath string

		wantTemplateName string
	}{
		{
			name: "uses filesystem template when available",
			templatePath: func(t *testing.T) string {
				templatePath := filepath.Join(t.TempDir(), "custom.md.go.tmpl")
				content := `Custom: {{ .Suite }} {{ range .Cases }}[{{ .Status }}]{{ end }}`
				require.NoError(t, os.WriteFile(templatePath, []byte(content), 0644))
				return templatePath
			}(t),
			wantTemplateName: "custom.md.go.tmpl",
		},
		{
			name:             "uses embedded template when file doesn't exist",
			templatePath:     "/non/existent/invalid.md.go.tmpl",
			wantTemplateName: "report.md.go.tmpl",
		},
		{
			name:             "uses embedded template when no path is given",
			wantTemplateName: "report.md.go.tmpl",
		},
		{
			name: "uses embedded template when filesystem template is invalid",
			templatePath: func(t *testing.T) string {
				templatePath := filepath.Join(t.TempDir(), "invalid.md.go.tmpl")
				require.NoError(t, os.WriteFile(templatePath, []byte(`Bad: {{ .Unclosed`), 0644))
				return templatePath
			}(t),
			wantTemplateName: "report.md.go.tmpl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReportTemplate(tt.templatePath)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTemplateName, got.Name())
		})
	}
}

func TestWriteReport(t *testing.T) {
	data := ReportTemplate{
		Title:       "API test report",
		RunID:       "4f0c1d3e-0000-4000-8000-000000000000",
		Suite:       "jsonplaceholder",
		Backend:     "stub",
		StartedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		DurationSec: 1.25,
		Summary:     ReportSummary{Total: 2, Passed: 1, Failed: 1, SuccessRate: 0.5, SecurityIssues: 1},
		Cases: []ReportCase{
			{
				Name:            "user has username",
				Method:          "GET",
				Endpoint:        "/users/1",
				Status:          "FAIL",
				Feature:         "Users",
				Severity:        "critical",
				Tags:            []string{"smoke", "users"},
				StatusCode:      200,
				Structure:       "valid_json",
				DataType:        "object",
				FieldsCount:     3,
				ResponseTimeSec: 0.12,
				Performance:     "normal",
				Verdict:         "invalid",
				Feedback:        "The response is missing expected fields: username.",
				MissingFields:   []string{"username"},
				SecurityIssues:  []string{"Missing security header: X-Frame-Options"},
			},
			{
				Name:     "unreachable",
				Method:   "GET",
				Endpoint: "/down",
				Status:   "ERROR",
				Error:    "connection refused",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, "", data))
	output := buf.String()

	assert.Contains(t, output, "# API test report")
	assert.Contains(t, output, "| 2 | 1 | 1 | 0 | 50.0% | 1 | 0 |")
	assert.Contains(t, output, "## FAIL: user has username")
	assert.Contains(t, output, "- Tags: smoke, users")
	assert.Contains(t, output, "- Structure: valid_json (object, 3 fields)")
	assert.Contains(t, output, "- Response time: 0.120s (normal)")
	assert.Contains(t, output, "- AI verdict: invalid")
	assert.Contains(t, output, "- Missing fields: username")
	assert.Contains(t, output, "    - Missing security header: X-Frame-Options")
	assert.Contains(t, output, "## ERROR: unreachable")
	assert.Contains(t, output, "- Error: connection refused")
	assert.NotContains(t, output, "- Story:")
}
