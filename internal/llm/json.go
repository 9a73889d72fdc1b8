// Package llm implements the workflow collaborators (classifier,
// generator, evaluator) on top of an LLM provider.
package llm

import (
	"encoding/json"
	"strings"
)

// decodeJSON extracts the first {...} span from a model response and
// unmarshals it into v. Models wrap JSON in prose often enough that a
// strict parse would throw away usable answers; callers pre-populate v
// with defaults and get them back when no JSON can be extracted.
func decodeJSON(raw string, v any) bool {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(raw[start:end+1]), v) == nil
}
