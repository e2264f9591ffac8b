// Package repeat builds the repeat-caller coaching report: customers with two
// or more contacts, their call spans, theme and agent trails, heuristic
// pattern tags and a bounded risk score.
package repeat

import (
	"sort"
	"strings"
	"time"

	"call-insights-go/internal/themes"
	"call-insights-go/internal/types"
)

// riskKeywords earn 5 points each per matching flag. Substring matches on the
// lowercased flag text; the full phrases keep a bare "supervisor" or
// "frustrated" mention from inflating the score.
var riskKeywords = []string{
	"issue unresolved",
	"customer frustrated",
	"agent error",
	"complaint",
	"supervisor request",
}

// criticalThemes are the themes whose recurrence across a customer's first and
// last call is treated as a standing unsolved problem.
var criticalThemes = map[string]bool{
	"Billing":       true,
	"Technical":     true,
	"Account":       true,
	"Product Issue": true,
}

type groupedCall struct {
	call types.CustomerCall
	when time.Time
	ok   bool
}

// Analyze groups calls by customer identifier and reports every customer with
// at least two contacts, ordered by descending call count. The risk score is a
// heuristic ranking aid bounded to [0,100], not a calibrated probability.
func Analyze(calls []types.Call) []types.RepeatCaller {
	groups := map[string][]groupedCall{}
	for i := range calls {
		id := calls[i].CustomerID()
		if id == "" || id == "N/A" || id == "Unknown" {
			continue
		}
		ts := calls[i].Meta[types.MetaInitiation]
		when, ok := types.ParseTimestamp(ts)
		groups[id] = append(groups[id], groupedCall{
			call: types.CustomerCall{
				ContactID: calls[i].ContactID(),
				Timestamp: ts,
				Agent:     calls[i].AgentName(),
				Flags:     calls[i].Flags,
			},
			when: when,
			ok:   ok,
		})
	}

	out := []types.RepeatCaller{}
	for id, gcs := range groups {
		if len(gcs) < 2 {
			continue
		}
		// Chronological order; undated calls keep their ingest order at the end.
		sort.SliceStable(gcs, func(i, j int) bool {
			if gcs[i].ok != gcs[j].ok {
				return gcs[i].ok
			}
			return gcs[i].when.Before(gcs[j].when)
		})
		out = append(out, buildCaller(id, gcs))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CallCount != out[j].CallCount {
			return out[i].CallCount > out[j].CallCount
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

func buildCaller(id string, gcs []groupedCall) types.RepeatCaller {
	rc := types.RepeatCaller{
		Identifier:  id,
		CallCount:   len(gcs),
		ThemeCounts: map[string]int{},
		PatternTags: []string{},
	}

	agents := make([]string, 0, len(gcs))
	for _, gc := range gcs {
		rc.Calls = append(rc.Calls, gc.call)
		agents = append(agents, gc.call.Agent)
		for _, f := range gc.call.Flags {
			rc.ThemeCounts[themes.ThemeFor(f)]++
		}
	}
	rc.AgentTrail = strings.Join(agents, " → ")
	rc.FirstCall = gcs[0].call.Timestamp
	rc.LastCall = gcs[len(gcs)-1].call.Timestamp
	rc.SpanDays = spanDays(gcs)
	rc.TopThemes = topThemes(rc.ThemeCounts, 3)
	rc.PatternTags = patternTags(gcs)
	rc.RiskScore = riskScore(gcs)
	return rc
}

// spanDays is the whole-day distance between the first and last dated call,
// floored at one day for any multi-call customer.
func spanDays(gcs []groupedCall) int {
	var first, last time.Time
	seen := false
	for _, gc := range gcs {
		if !gc.ok {
			continue
		}
		if !seen || gc.when.Before(first) {
			first = gc.when
		}
		if !seen || gc.when.After(last) {
			last = gc.when
		}
		seen = true
	}
	if !seen {
		return 1
	}
	days := int(last.Sub(first).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}

func topThemes(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for t := range counts {
		names = append(names, t)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// callThemes is the deduplicated theme set of one call's flags.
func callThemes(gc groupedCall) map[string]bool {
	set := map[string]bool{}
	for _, f := range gc.call.Flags {
		set[themes.ThemeFor(f)] = true
	}
	return set
}

func escalated(gc groupedCall) bool {
	for _, f := range gc.call.Flags {
		lower := strings.ToLower(f)
		if !strings.Contains(lower, "escalate") && !strings.Contains(lower, "supervisor") {
			continue
		}
		switch themes.ThemeFor(f) {
		case "Call Experience", "Call Handling", "Process":
			return true
		}
	}
	return false
}

func dropped(gc groupedCall) bool {
	for _, f := range gc.call.Flags {
		lower := strings.ToLower(f)
		if strings.Contains(lower, "disconnect") || strings.Contains(lower, "hang up") || strings.Contains(lower, "drop") {
			return true
		}
	}
	return false
}

// patternTags applies the heuristic multi-label tagging; each label triggers
// independently.
func patternTags(gcs []groupedCall) []string {
	tags := []string{}

	missed := false
	for _, gc := range gcs {
		for _, f := range gc.call.Flags {
			switch themes.ThemeFor(f) {
			case "Resolution Failure", "Resolution":
				missed = true
			}
		}
	}
	if missed {
		tags = append(tags, "Missed Resolution")
	}

	firstThemes := callThemes(gcs[0])
	lastThemes := callThemes(gcs[len(gcs)-1])
	shared := false
	for t := range firstThemes {
		if criticalThemes[t] && lastThemes[t] {
			shared = true
			break
		}
	}
	if shared {
		tags = append(tags, "Same Critical Theme")
	}

	if t := dominantTheme(gcs[0]); t != "" && criticalThemes[t] && lastThemes[t] {
		tags = append(tags, t+" Repeated")
	}

	for i := 0; i+1 < len(gcs); i++ {
		if escalated(gcs[i]) && dropped(gcs[i+1]) {
			tags = append(tags, "Escalation → Drop")
			break
		}
	}

	if escalated(gcs[0]) {
		tags = append(tags, "Escalated Early")
	}
	if dropped(gcs[0]) {
		tags = append(tags, "Dropped Early")
	}
	return tags
}

// dominantTheme is the most frequent theme of one call's flags, ties broken
// alphabetically.
func dominantTheme(gc groupedCall) string {
	counts := map[string]int{}
	for _, f := range gc.call.Flags {
		counts[themes.ThemeFor(f)]++
	}
	best := ""
	for t, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && t < best) {
			best = t
		}
	}
	return best
}

// riskScore: 15 per repeat call beyond the first, 5 per negative-keyword flag
// match, 10 flat for any unresolved flag, 5 flat for any escalation, clamped
// to [0,100].
func riskScore(gcs []groupedCall) int {
	score := 15 * (len(gcs) - 1)

	unresolved := false
	escalation := false
	for _, gc := range gcs {
		for _, f := range gc.call.Flags {
			lower := strings.ToLower(f)
			for _, kw := range riskKeywords {
				if strings.Contains(lower, kw) {
					score += 5
					break
				}
			}
			if strings.Contains(lower, "unresolved") || strings.Contains(lower, "not resolved") {
				unresolved = true
			}
			if strings.Contains(lower, "escalat") {
				escalation = true
			}
		}
	}
	if unresolved {
		score += 10
	}
	if escalation {
		score += 5
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
