package report

import (
	"fmt"
	"io"

	"github.com/at-ishikawa/apijudge/internal/assets"
)

func RenderMarkdown(output io.Writer, templatePath string, run Run) error {
	if err := assets.WriteReport(output, templatePath, toTemplate(run)); err != nil {
		return fmt.Errorf("assets.WriteReport() > %w", err)
	}
	return nil
}

func toTemplate(run Run) assets.ReportTemplate {
	summary := run.Summary()
	data := assets.ReportTemplate{
		Title:       fmt.Sprintf("API test report: %s", run.SuiteName),
		RunID:       run.ID,
		Suite:       run.SuiteName,
		Backend:     run.Backend,
		StartedAt:   run.StartedAt,
		DurationSec: run.Duration().Seconds(),
		Summary: assets.ReportSummary{
			Total:          summary.Total,
			Passed:         summary.Passed,
			Failed:         summary.Failed,
			Errored:        summary.Errored,
			SuccessRate:    summary.SuccessRate,
			SecurityIssues: summary.SecurityIssues,
			SlowResponses:  summary.SlowResponses,
		},
	}
	for _, result := range run.Results {
		c := assets.ReportCase{
			Name:            result.Name,
			Method:          result.Method,
			Endpoint:        result.Endpoint,
			Status:          string(result.Status),
			Feature:         result.Metadata.Feature,
			Story:           result.Metadata.Story,
			Severity:        result.Metadata.Severity,
			Tags:            result.Metadata.Tags,
			StatusCode:      result.Analysis.StatusCode,
			Structure:       result.Analysis.Structure,
			DataType:        result.Analysis.DataType,
			FieldsCount:     result.Analysis.FieldsCount,
			ResponseTimeSec: result.Analysis.ResponseTimeSec,
			Performance:     result.Analysis.Performance,
			MissingFields:   result.MissingFields,
			SecurityIssues:  result.SecurityIssues,
			Scenarios:       result.ScenariosTested,
			Reason:          result.Reason,
			Error:           result.Error,
		}
		if result.Verdict != nil {
			c.Verdict = "invalid"
			if result.Verdict.IsValid {
				c.Verdict = "valid"
			}
			c.Feedback = result.Verdict.Feedback
		}
		data.Cases = append(data.Cases, c)
	}
	return data
}
