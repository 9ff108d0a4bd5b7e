package apiclient

import (
	"net/http"
	"time"
)

const DefaultSlowThreshold = 2 * time.Second

const (
	StructureJSON    = "valid_json"
	StructureNonJSON = "non_json"

	PerformanceNormal = "normal"
	PerformanceSlow   = "slow"
)

// Analysis is the structural summary attached to every test result.
type Analysis struct {
	StatusCode      int     `json:"status_code" yaml:"status_code"`
	Success         bool    `json:"success" yaml:"success"`
	Structure       string  `json:"structure" yaml:"structure"`
	DataType        string  `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	FieldsCount     int     `json:"fields_count" yaml:"fields_count"`
	ResponseTimeSec float64 `json:"response_time" yaml:"response_time"`
	Performance     string  `json:"performance_flag" yaml:"performance_flag"`
}

// Analyze summarizes resp. Responses slower than slowThreshold are flagged.
func Analyze(resp Response, slowThreshold time.Duration) Analysis {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}

	analysis := Analysis{
		StatusCode:      resp.StatusCode,
		Success:         resp.IsSuccess(),
		Structure:       StructureNonJSON,
		ResponseTimeSec: resp.Elapsed.Seconds(),
		Performance:     PerformanceNormal,
	}
	if resp.JSON.IsValid() {
		analysis.Structure = StructureJSON
		analysis.DataType = resp.JSON.Kind().String()
		analysis.FieldsCount = resp.JSON.Len()
	}
	if resp.Elapsed > slowThreshold {
		analysis.Performance = PerformanceSlow
	}
	return analysis
}

var requiredSecurityHeaders = []string{
	"X-Content-Type-Options",
	"X-Frame-Options",
	"Strict-Transport-Security",
}

// SecurityIssues lists information disclosure and missing hardening headers.
func SecurityIssues(headers http.Header) []string {
	var issues []string
	if len(headers.Values("X-Powered-By")) > 0 {
		issues = append(issues, "Information disclosure: X-Powered-By header present")
	}
	for _, header := range requiredSecurityHeaders {
		if len(headers.Values(header)) == 0 {
			issues = append(issues, "Missing security header: "+header)
		}
	}
	return issues
}
