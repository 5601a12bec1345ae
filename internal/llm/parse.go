package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"hexcast/internal/reading"
)

// ParseReading decodes a model response into a structured reading. Models
// routinely wrap JSON in markdown fences despite instructions, so fences
// are stripped first. Older models emit the final hexagram under "result";
// both keys are accepted, with "final_hexagram" winning when both appear.
func ParseReading(raw string) (reading.StructuredReading, error) {
	cleaned := stripMarkdownCodeFences(raw)

	var payload struct {
		HexagramName   string `json:"hexagram_name"`
		Summary        string `json:"summary"`
		Interpretation string `json:"interpretation"`
		LineChange     string `json:"line_change"`
		FinalHexagram  string `json:"final_hexagram"`
		Result         string `json:"result"`
		Advice         string `json:"advice"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return reading.StructuredReading{}, fmt.Errorf("response is not valid JSON: %w", err)
	}

	final := payload.FinalHexagram
	if final == "" {
		final = payload.Result
	}

	out := reading.StructuredReading{
		HexagramName:   strings.TrimSpace(payload.HexagramName),
		Summary:        strings.TrimSpace(payload.Summary),
		Interpretation: strings.TrimSpace(payload.Interpretation),
		LineChange:     strings.TrimSpace(payload.LineChange),
		FinalHexagram:  strings.TrimSpace(final),
		Advice:         strings.TrimSpace(payload.Advice),
	}
	if out.Empty() {
		return reading.StructuredReading{}, fmt.Errorf("response carried no reading fields")
	}
	return out, nil
}

// stripMarkdownCodeFences removes markdown code fence wrapping from a string.
// Handles ```json, ```, and variations with language specifiers.
func stripMarkdownCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "```") {
		firstNewline := strings.Index(trimmed, "\n")
		if firstNewline != -1 {
			lastFence := strings.LastIndex(trimmed, "```")
			if lastFence > firstNewline {
				content := trimmed[firstNewline+1 : lastFence]
				return strings.TrimSpace(content)
			}
		}
	}

	return s
}
