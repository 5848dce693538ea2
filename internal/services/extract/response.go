package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeResponse parses the model's response text into v. Models
// sometimes wrap JSON in a markdown code fence despite instructions;
// the fence is stripped before parsing. Anything that still fails to
// parse is a hard failure, never a partial result.
func decodeResponse(text string, v interface{}) error {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		var jsonLines []string
		inFence := false
		for _, line := range strings.Split(cleaned, "\n") {
			switch {
			case strings.HasPrefix(line, "```") && !inFence:
				inFence = true
			case strings.HasPrefix(line, "```") && inFence:
				inFence = false
			case inFence:
				jsonLines = append(jsonLines, line)
			}
		}
		cleaned = strings.Join(jsonLines, "\n")
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("extraction response is not valid JSON: %w", err)
	}
	return nil
}
