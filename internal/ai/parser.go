package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// Classification is the payload the backend is asked to produce. Fields left
// empty by the model keep their zero values; merging with defaults is the
// caller's job.
type Classification struct {
	Severity      string
	Department    string
	PriorityScore int
	Suggestions   map[string]any
}

// ErrNoJSON indicates the response contained no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in response")

// rawClassification tolerates the loose shapes models actually emit:
// priorityScore as number or numeric string, suggestions as object, string or
// list.
type rawClassification struct {
	Severity      string          `json:"severity"`
	Department    string          `json:"department"`
	PriorityScore json.Number     `json:"priorityScore"`
	Suggestions   json.RawMessage `json:"suggestions"`
}

// ExtractClassification locates the first {...} span in free text and parses
// it. Responses are routinely wrapped in prose or markdown fences, so the
// scan runs from the first opening brace to the last closing one.
func ExtractClassification(text string) (Classification, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return Classification{}, ErrNoJSON
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Classification{}, err
	}

	result := Classification{
		Severity:    strings.ToLower(strings.TrimSpace(raw.Severity)),
		Department:  strings.TrimSpace(raw.Department),
		Suggestions: decodeSuggestions(raw.Suggestions),
	}
	if score, err := raw.PriorityScore.Int64(); err == nil {
		result.PriorityScore = int(score)
	} else if f, err := raw.PriorityScore.Float64(); err == nil {
		result.PriorityScore = int(f)
	}
	return result, nil
}

func decodeSuggestions(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap
	}
	var asAny any
	if err := json.Unmarshal(raw, &asAny); err == nil && asAny != nil {
		return map[string]any{"text": asAny}
	}
	return nil
}
