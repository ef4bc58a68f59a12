package citations

import (
	"encoding/json"
	"fmt"
)

// unmarshalParsedCitations decodes the LLM's structured Sources-parse
// response (S4 Step 1's response schema).
func unmarshalParsedCitations(data []byte) ([]ParsedCitation, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty structured response")
	}
	var parsed []ParsedCitation
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal parsed citations: %w", err)
	}
	return parsed, nil
}
