package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"trading-agentv1/internal/model"
)

// stripFences removes a markdown code fence wrapper if present. Models
// routinely wrap JSON output in ```json ... ``` despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseDecisions parses a raw model response into validated decisions.
// A single JSON object is accepted as a one-element array. Any structural
// problem or unknown signal rejects the whole response: partial application
// of a half-understood decision set is worse than skipping a cycle.
func ParseDecisions(raw string) ([]model.TradeDecision, error) {
	clean := stripFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty response")
	}

	var decisions []model.TradeDecision
	if strings.HasPrefix(clean, "{") {
		var one model.TradeDecision
		if err := json.Unmarshal([]byte(clean), &one); err != nil {
			return nil, fmt.Errorf("decode decision object: %w", err)
		}
		decisions = []model.TradeDecision{one}
	} else {
		if err := json.Unmarshal([]byte(clean), &decisions); err != nil {
			return nil, fmt.Errorf("decode decision array: %w", err)
		}
	}

	for i := range decisions {
		if err := decisions[i].Validate(); err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
	}
	return decisions, nil
}
