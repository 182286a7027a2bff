package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// objectPattern is a greedy scan from the first '{' to the last '}'.
var objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractObject returns the span from the first '{' to the last '}' of the
// trimmed response, or the whole trimmed response when it has no such span.
func ExtractObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := objectPattern.FindString(trimmed); m != "" {
		return m
	}
	return trimmed
}

// DecodeObject extracts the JSON object from a model response and decodes it
// into target. When lenient is set, a candidate that fails to decode is passed
// through RepairJSON and decoded once more.
func DecodeObject(raw string, target interface{}, lenient bool) error {
	candidate := ExtractObject(raw)
	err := json.Unmarshal([]byte(candidate), target)
	if err == nil || !lenient {
		return err
	}

	repaired, stats, repairErr := RepairJSON(candidate)
	if repairErr != nil {
		log.Debug().Err(repairErr).Str("candidate", truncateForLog(candidate, 200)).Msg("llm: JSON repair failed")
		return fmt.Errorf("decode model JSON: %w", err)
	}
	log.Debug().
		Strs("strategies", stats.RepairStrategies).
		Int("original_bytes", stats.OriginalBytes).
		Int("repaired_bytes", stats.RepairedBytes).
		Msg("llm: repaired model JSON")
	return json.Unmarshal([]byte(repaired), target)
}

func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
