package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON isolates the JSON object embedded in an LLM response.
// Models frequently wrap the payload in prose or code fences, so we cut
// from the first '{' to the last '}' and let the caller unmarshal.
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

// DecodeStructured parses a structured LLM response into the given target.
// Any deviation from the declared shape surfaces as an error; callers apply
// their own stage-specific default on failure.
func DecodeStructured(response string, target any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(response)), target); err != nil {
		return fmt.Errorf("structured output unmarshal failed: %w", err)
	}
	return nil
}
