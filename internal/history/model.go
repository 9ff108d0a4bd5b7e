package history

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/report"
)

// RunRecord is a stored run without its case results.
type RunRecord struct {
	ID         string    `db:"id"`
	SuiteName  string    `db:"suite_name"`
	Backend    string    `db:"backend"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Total      int       `db:"total"`
	Passed     int       `db:"passed"`
	Failed     int       `db:"failed"`
	Errored    int       `db:"errored"`
}

type caseRow struct {
	RunID          string         `db:"run_id"`
	Position       int            `db:"position"`
	Name           string         `db:"name"`
	Method         string         `db:"method"`
	Endpoint       string         `db:"endpoint"`
	Status         string         `db:"status"`
	StatusCode     int            `db:"status_code"`
	ResponseTimeMs int64          `db:"response_time_ms"`
	Performance    string         `db:"performance"`
	IsValid        sql.NullBool   `db:"is_valid"`
	Feedback       sql.NullString `db:"feedback"`
	MissingFields  jsonColumn     `db:"missing_fields"`
	SecurityIssues jsonColumn     `db:"security_issues"`
	Metadata       jsonColumn     `db:"metadata"`
	Reason         sql.NullString `db:"reason"`
	Error          sql.NullString `db:"error"`
}

var caseColumns = []string{
	"run_id", "position", "name", "method", "endpoint", "status", "status_code",
	"response_time_ms", "performance", "is_valid", "feedback", "missing_fields",
	"security_issues", "metadata", "reason", "error",
}

func (r caseRow) args() []interface{} {
	return []interface{}{
		r.RunID, r.Position, r.Name, r.Method, r.Endpoint, r.Status, r.StatusCode,
		r.ResponseTimeMs, r.Performance, r.IsValid, r.Feedback, r.MissingFields,
		r.SecurityIssues, r.Metadata, r.Reason, r.Error,
	}
}

func newCaseRow(runID string, position int, result report.CaseResult) (caseRow, error) {
	row := caseRow{
		RunID:          runID,
		Position:       position,
		Name:           result.Name,
		Method:         result.Method,
		Endpoint:       result.Endpoint,
		Status:         string(result.Status),
		StatusCode:     result.Analysis.StatusCode,
		ResponseTimeMs: int64(result.Analysis.ResponseTimeSec * 1000),
		Performance:    result.Analysis.Performance,
		Reason:         nullString(result.Reason),
		Error:          nullString(result.Error),
	}
	if result.Verdict != nil {
		row.IsValid = sql.NullBool{Bool: result.Verdict.IsValid, Valid: true}
		row.Feedback = nullString(result.Verdict.Feedback)
	}

	var err error
	if row.MissingFields, err = newJSONColumn(result.MissingFields); err != nil {
		return caseRow{}, fmt.Errorf("encode missing fields: %w", err)
	}
	if row.SecurityIssues, err = newJSONColumn(result.SecurityIssues); err != nil {
		return caseRow{}, fmt.Errorf("encode security issues: %w", err)
	}
	if row.Metadata, err = newJSONColumn(result.Metadata); err != nil {
		return caseRow{}, fmt.Errorf("encode metadata: %w", err)
	}
	return row, nil
}

func (r caseRow) toResult() (report.CaseResult, error) {
	result := report.CaseResult{
		Name:     r.Name,
		Method:   r.Method,
		Endpoint: r.Endpoint,
		Status:   report.Status(r.Status),
		Reason:   r.Reason.String,
		Error:    r.Error.String,
	}
	result.Analysis.StatusCode = r.StatusCode
	result.Analysis.Success = r.StatusCode >= 200 && r.StatusCode < 300
	result.Analysis.ResponseTimeSec = float64(r.ResponseTimeMs) / 1000
	result.Analysis.Performance = r.Performance

	if r.IsValid.Valid {
		result.Verdict = &inference.ValidationResult{IsValid: r.IsValid.Bool, Feedback: r.Feedback.String}
	}
	if err := r.MissingFields.decode(&result.MissingFields); err != nil {
		return report.CaseResult{}, fmt.Errorf("decode missing fields: %w", err)
	}
	if err := r.SecurityIssues.decode(&result.SecurityIssues); err != nil {
		return report.CaseResult{}, fmt.Errorf("decode security issues: %w", err)
	}
	if err := r.Metadata.decode(&result.Metadata); err != nil {
		return report.CaseResult{}, fmt.Errorf("decode metadata: %w", err)
	}
	return result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// jsonColumn holds a JSON document stored in a nullable column.
type jsonColumn struct {
	data  []byte
	valid bool
}

func newJSONColumn(v interface{}) (jsonColumn, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return jsonColumn{}, err
	}
	if string(data) == "null" {
		return jsonColumn{}, nil
	}
	return jsonColumn{data: data, valid: true}, nil
}

func (c jsonColumn) Value() (driver.Value, error) {
	if !c.valid {
		return nil, nil
	}
	return string(c.data), nil
}

func (c *jsonColumn) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = jsonColumn{}
	case []byte:
		*c = jsonColumn{data: append([]byte{}, v...), valid: true}
	case string:
		*c = jsonColumn{data: []byte(v), valid: true}
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	return nil
}

func (c jsonColumn) decode(v interface{}) error {
	if !c.valid {
		return nil
	}
	return json.Unmarshal(c.data, v)
}
