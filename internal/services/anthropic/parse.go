package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// summarySchema validates the top-level shape of a summary response before
// it is decoded into typed structs
var summarySchema = jsonschema.MustCompileString("summary.json", `{
	"type": "object",
	"required": ["sections", "quotes"],
	"properties": {
		"sections": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["title", "content"],
				"properties": {
					"title": {"type": "string"},
					"content": {"type": "string"},
					"start_time": {"type": "number"},
					"end_time": {"type": "number"}
				}
			}
		},
		"quotes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text"],
				"properties": {
					"text": {"type": "string"},
					"start_time": {"type": "number"},
					"end_time": {"type": "number"}
				}
			}
		}
	}
}`)

// parseSummaryResponse strips optional markdown fencing, parses the JSON
// and validates its shape. A structurally invalid response is a fatal
// parse error, distinct from a rate-limit error.
func parseSummaryResponse(text string) (*Summary, error) {
	jsonText := stripCodeFence(text)

	var raw interface{}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidSummary, err)
	}

	if err := summarySchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSummary, err)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(jsonText), &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSummary, err)
	}

	return &summary, nil
}

// stripCodeFence removes a wrapping markdown code block, with or without a
// language tag, when the model ignores the "no markdown" instruction
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json")
		first := strings.TrimSpace(trimmed[:idx])
		if first == "" || !strings.ContainsAny(first, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// encodeSummary renders a summary back to JSON for inclusion in the
// synthesis prompt
func encodeSummary(s *Summary) string {
	data, err := json.Marshal(s)
	if err != nil {
		return "{}"
	}
	return string(data)
}
