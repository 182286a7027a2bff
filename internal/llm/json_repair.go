package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats describes what RepairJSON had to do.
type RepairStats struct {
	OriginalBytes    int           `json:"original_bytes"`
	RepairedBytes    int           `json:"repaired_bytes"`
	ErrorsFixed      int           `json:"errors_fixed"`
	RepairTime       time.Duration `json:"repair_time"`
	RepairStrategies []string      `json:"repair_strategies"`
	WasRepaired      bool          `json:"was_repaired"`
}

var (
	trailingCommaObject = regexp.MustCompile(`,\s*}`)
	trailingCommaArray  = regexp.MustCompile(`,\s*]`)
	unquotedKey         = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*:)`)
	singleQuoted        = regexp.MustCompile(`'([^']*)'`)
)

// repairStrategy is one targeted textual fix.
type repairStrategy struct {
	name  string
	apply func(string) string
}

// strategies run in order before falling back to the jsonrepair library.
var strategies = []repairStrategy{
	{"trailing_commas", func(s string) string {
		s = trailingCommaObject.ReplaceAllString(s, "}")
		return trailingCommaArray.ReplaceAllString(s, "]")
	}},
	{"key_quotes", func(s string) string { return unquotedKey.ReplaceAllString(s, `$1"$2"$3`) }},
	{"single_quotes", func(s string) string { return singleQuoted.ReplaceAllString(s, `"$1"`) }},
	{"completion", completeJSON},
}

// RepairJSON returns raw unchanged when it is already valid JSON. Otherwise it
// applies the cheap textual fixes and then the jsonrepair library, returning
// an error when the result still does not parse.
func RepairJSON(raw string) (string, RepairStats, error) {
	start := time.Now()
	stats := RepairStats{OriginalBytes: len(raw)}
	finish := func(out string, err error) (string, RepairStats, error) {
		stats.RepairedBytes = len(out)
		stats.RepairTime = time.Since(start)
		return out, stats, err
	}

	if json.Valid([]byte(raw)) {
		return finish(raw, nil)
	}

	stats.WasRepaired = true
	repaired := raw
	for _, s := range strategies {
		next := s.apply(repaired)
		if next == repaired {
			continue
		}
		repaired = next
		stats.RepairStrategies = append(stats.RepairStrategies, s.name)
		stats.ErrorsFixed++
		if json.Valid([]byte(repaired)) {
			return finish(repaired, nil)
		}
	}

	if lib, err := jsonrepair.JSONRepair(repaired); err == nil && lib != repaired {
		repaired = lib
		stats.RepairStrategies = append(stats.RepairStrategies, "jsonrepair_library")
		stats.ErrorsFixed++
	}

	if !json.Valid([]byte(repaired)) {
		return finish(repaired, fmt.Errorf("JSON repair failed after %d strategies", len(stats.RepairStrategies)))
	}
	return finish(repaired, nil)
}

// completeJSON closes unterminated objects and arrays in LIFO order.
func completeJSON(s string) string {
	s = strings.TrimSpace(s)
	var stack []rune
	inString, escaped := false, false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == r {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
