// Package duration normalizes the heterogeneous "Contact duration" values
// seen in exports into whole seconds. Best effort: anything unrecognized is 0.
package duration

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	colonTriple = regexp.MustCompile(`(\d+):(\d+):(\d+)`)
	minSec      = regexp.MustCompile(`(?i)(\d+)\s*min(?:utes)?\s*(?:and\s*)?(?:(\d+)\s*sec(?:onds)?)?`)
	secOnly     = regexp.MustCompile(`(?i)(\d+)\s*sec(?:onds)?`)
)

// ParseSeconds parses duration text into seconds. Formats are tried in a
// fixed precedence order: "HH:MM:SS", "N minutes [and] M seconds",
// "N seconds", a bare number, else 0. Never returns a negative value.
func ParseSeconds(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	if m := colonTriple.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		return h*3600 + mi*60 + s
	}

	if m := minSec.FindStringSubmatch(text); m != nil {
		mi, _ := strconv.Atoi(m[1])
		s := 0
		if m[2] != "" {
			s, _ = strconv.Atoi(m[2])
		}
		return mi*60 + s
	}

	if m := secOnly.FindStringSubmatch(text); m != nil {
		s, _ := strconv.Atoi(m[1])
		return s
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		if f < 0 {
			return 0
		}
		return int(f)
	}

	return 0
}
