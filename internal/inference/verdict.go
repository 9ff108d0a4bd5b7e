package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

type verdictPayload struct {
	IsValid  *bool   `json:"is_valid"`
	Feedback *string `json:"feedback"`
}

// ParseVerdict reads a model reply into a ValidationResult. Markdown code
// fences and text around the JSON object are tolerated; a missing key or an
// empty feedback is not.
func ParseVerdict(content string) (ValidationResult, error) {
	candidate := extractJSONObject(stripCodeFence(content))
	if candidate == "" {
		return ValidationResult{}, &MalformedResponseError{Raw: content, Err: fmt.Errorf("no JSON object found")}
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return ValidationResult{}, &MalformedResponseError{Raw: content, Err: fmt.Errorf("json.Unmarshal > %w", err)}
	}
	if payload.IsValid == nil {
		return ValidationResult{}, &MalformedResponseError{Raw: content, Err: fmt.Errorf(`missing "is_valid"`)}
	}
	if payload.Feedback == nil || strings.TrimSpace(*payload.Feedback) == "" {
		return ValidationResult{}, &MalformedResponseError{Raw: content, Err: fmt.Errorf(`missing "feedback"`)}
	}

	return ValidationResult{
		IsValid:  *payload.IsValid,
		Feedback: strings.TrimSpace(*payload.Feedback),
	}, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if newline := strings.IndexByte(content, '\n'); newline >= 0 {
		// drop the language tag, e.g. ```json
		content = content[newline+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))
}

// extractJSONObject returns the first balanced {...} in content, ignoring
// braces inside strings. It returns "" when the object never closes, which
// is how a truncated reply looks.
func extractJSONObject(content string) string {
	start := -1
	depth := 0
	inString := false
	escapeNext := false

	for i, ch := range content {
		if escapeNext {
			escapeNext = false
			continue
		}
		if ch == '\\' && inString {
			escapeNext = true
			continue
		}
		if ch == '"' && start >= 0 {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
