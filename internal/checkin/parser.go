package checkin

import (
	"regexp"
	"strconv"
	"strings"
)

// strictPattern matches the fixed check-in template, anchored so that extra
// text before "Sleep", missing fields, or reordered fields all miss:
//
//	Sleep <number>[h] | Mood <int> | Energy <int> | Notes: <rest>
var strictPattern = regexp.MustCompile(
	`(?i)^\s*Sleep\s+(\d+(?:\.\d+)?)h?\s*\|\s*Mood\s+(\d+)\s*\|\s*Energy\s+(\d+)\s*\|\s*Notes:\s*(.+)$`,
)

// ParseStrict matches a message against the fixed check-in template.
// Returns nil on any deviation; it never returns a partial record and never
// fails.
func ParseStrict(message string) *Checkin {
	match := strictPattern.FindStringSubmatch(strings.TrimSpace(message))
	if match == nil {
		return nil
	}

	sleep, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return nil
	}
	mood, err := strconv.Atoi(match[2])
	if err != nil {
		return nil
	}
	energy, err := strconv.Atoi(match[3])
	if err != nil {
		return nil
	}

	return &Checkin{
		Sleep:  floatPtr(sleep),
		Mood:   intPtr(mood),
		Energy: intPtr(energy),
		Notes:  strings.TrimSpace(match[4]),
	}
}
