package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are an API response validator used by an automated test suite.

You receive a JSON response returned by an API, a list of fields the response is
expected to contain and a description of what a valid response means.

RULES:
1. A response is invalid when any expected field is missing. Name every missing
   field in the feedback, exactly as it was written in the expected fields list.
2. A response is invalid when its values contradict the description, for
   example a wrong type, an empty required value or an impossible combination.
3. Otherwise the response is valid.
4. Always explain the verdict in one to three sentences, also when it is valid.

OUTPUT FORMAT (JSON only):
{
  "is_valid": true | false,
  "feedback": "<explanation>"
}

Do NOT include any text outside the JSON.`

// SystemPrompt is the instruction shared by every backend.
func SystemPrompt() string {
	return systemPrompt
}

// Prompt is the pair of messages sent to a chat-style model.
type Prompt struct {
	System string
	User   string
}

// Combined joins both messages for backends without a system role.
func (p Prompt) Combined() string {
	return p.System + "\n\n" + p.User
}

// BuildPrompt renders req into model messages. Fields detected as missing
// locally are listed so the model does not have to find them itself.
func BuildPrompt(req ValidationRequest) (Prompt, error) {
	if !req.Response.IsValid() {
		return Prompt{}, fmt.Errorf("response payload is empty")
	}
	response, err := json.MarshalIndent(req.Response, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("json.MarshalIndent(response) > %w", err)
	}

	var user strings.Builder
	user.WriteString("Response:\n")
	user.Write(response)
	user.WriteString("\n\n")

	if len(req.ExpectedFields) > 0 {
		fmt.Fprintf(&user, "Expected fields: %s\n", strings.Join(req.ExpectedFields, ", "))
		missing := req.MissingFields()
		if len(missing) > 0 {
			fmt.Fprintf(&user, "Fields not found in the response: %s\n", strings.Join(missing, ", "))
		} else {
			user.WriteString("All expected fields are present.\n")
		}
	} else {
		user.WriteString("Expected fields: (none specified)\n")
	}

	description := strings.TrimSpace(req.Context)
	if description == "" {
		description = "(no additional description)"
	}
	fmt.Fprintf(&user, "Description: %s\n\nValidate this response.", description)

	return Prompt{System: systemPrompt, User: user.String()}, nil
}
