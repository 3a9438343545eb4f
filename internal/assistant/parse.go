package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
)

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

// StripCodeFences removes markdown code-fence markers anywhere in raw.
func StripCodeFences(raw string) string {
	return strings.TrimSpace(fenceStripper.Replace(raw))
}

// ParseSteps decodes a decomposition response into trimmed, non-empty step
// titles.
func ParseSteps(raw string) ([]string, error) {
	cleaned := StripCodeFences(raw)
	var steps []string
	if err := json.Unmarshal([]byte(cleaned), &steps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		if s := strings.TrimSpace(step); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrMalformedResponse)
	}
	return out, nil
}
