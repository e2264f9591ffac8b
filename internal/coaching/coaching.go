// Package coaching renders plain-text coaching output from aggregation and
// repeat-caller results: the outlook block, the team summary, per-agent
// badges and the repeat-caller report.
package coaching

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"call-insights-go/internal/themes"
	"call-insights-go/internal/types"
)

// phonePattern masks the middle block of a ten-digit number. Email
// identifiers pass through untouched.
var phonePattern = regexp.MustCompile(`(\d{3})\d{4}(\d{4})`)

// MaskIdentifier hides the middle digits of a phone-number identifier.
func MaskIdentifier(id string) string {
	if strings.Contains(id, "@") {
		return id
	}
	return phonePattern.ReplaceAllString(id, "$1****$2")
}

// themeCounts folds the negative-flag distribution into theme totals.
func themeCounts(flagDist map[string]int) map[string]int {
	out := map[string]int{}
	for flag, n := range flagDist {
		out[themes.ThemeFor(flag)] += n
	}
	return out
}

func sortedByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// OutlookText is the short at-a-glance block: call volume, averages, the top
// coaching theme and the repeat-contact rate.
func OutlookText(res types.AggregateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coaching Summary (%d calls)\n\n", res.Summary.TotalCalls)
	fmt.Fprintf(&b, "Avg Engagement Score: %.1f\n", res.Summary.AvgScore)
	fmt.Fprintf(&b, "Avg Duration: %.1f min\n", res.Summary.AvgDurationSeconds/60)

	tc := themeCounts(res.FlagDistribution)
	if top := sortedByCount(tc); len(top) > 0 {
		fmt.Fprintf(&b, "Top Coaching Theme: %s (%d times)\n", top[0], tc[top[0]])
	}

	repeats := 0
	for _, g := range res.CustomerGroups {
		if g.CallCount > 1 {
			repeats++
		}
	}
	pct := 0.0
	if len(res.CustomerGroups) > 0 {
		pct = float64(repeats) / float64(len(res.CustomerGroups)) * 100
	}
	fmt.Fprintf(&b, "Repeat Contacts: %d customers contacted more than once (%.1f%% of unique customers).\n", repeats, pct)
	return b.String()
}

// SummaryText is the long-form team coaching narrative.
func SummaryText(res types.AggregateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This period, %d calls were analyzed, resulting in an average team engagement score of %.1f.\n",
		res.Summary.TotalCalls, res.Summary.AvgScore)
	fmt.Fprintf(&b, "Average call duration was %.1f minutes.\n\n", res.Summary.AvgDurationSeconds/60)

	if len(res.TopAgents) > 0 {
		names := make([]string, 0, len(res.TopAgents))
		for _, a := range res.TopAgents {
			names = append(names, a.Name)
		}
		fmt.Fprintf(&b, "Agent Standouts (Top by Avg Score): Congratulations to %s for leading with high engagement scores!\n",
			strings.Join(names, ", "))
	} else if len(res.AgentMetrics) > 0 {
		b.WriteString("No specific agent standouts in the current filtered view based on top scores, but let's look at overall team efforts.\n")
	} else {
		b.WriteString("No agent data to display for standouts in the current view.\n")
	}

	tc := themeCounts(res.FlagDistribution)
	if top := sortedByCount(tc); len(top) > 0 {
		if len(top) > 5 {
			top = top[:5]
		}
		fmt.Fprintf(&b, "Key Themes (Negative Flags): Common themes observed include: %s. Consider focusing training or discussions around these topics.\n",
			strings.Join(top, ", "))
	}

	writeCallbackFocus(&b, res.CustomerGroups)
	writeAgentInsights(&b, res.AgentMetrics)

	w := res.AppliedWeights
	fmt.Fprintf(&b, "\nFormula used: +%d/pos.flag, +%d/short pos. call, %d/flag, %d/callback hit.\n",
		w.PositiveFlag, w.ShortPositiveCall, w.NegativeFlag, w.CallbackPenalty)
	return b.String()
}

func writeCallbackFocus(b *strings.Builder, groups map[string]*types.CustomerGroup) {
	repeats := make([]*types.CustomerGroup, 0)
	for _, g := range groups {
		if g.CallCount > 1 {
			repeats = append(repeats, g)
		}
	}
	if len(repeats) == 0 {
		b.WriteString("First-Call Resolution: Strong performance in first-call resolution, with no significant repeat callback patterns detected in this dataset.\n")
		return
	}
	sort.Slice(repeats, func(i, j int) bool {
		if repeats[i].CallCount != repeats[j].CallCount {
			return repeats[i].CallCount > repeats[j].CallCount
		}
		return repeats[i].Identifier < repeats[j].Identifier
	})
	fmt.Fprintf(b, "Callback Focus: %d customer(s) had multiple contacts.\n", len(repeats))
	top := repeats
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, g := range top {
		parts = append(parts, fmt.Sprintf("%s (%d calls)", MaskIdentifier(g.Identifier), g.CallCount))
	}
	fmt.Fprintf(b, "   - Prioritize reviewing interactions for: %s.\n", strings.Join(parts, ", "))
	b.WriteString("   - This can help identify opportunities to enhance first-call resolution.\n")
}

func writeAgentInsights(b *strings.Builder, metrics map[string]*types.AgentMetric) {
	b.WriteString("\nDeeper Agent Insights:\n")
	if len(metrics) == 0 {
		b.WriteString("   - No detailed agent metrics available for deeper insights.\n")
		return
	}

	var praise, develop []*types.AgentMetric
	for _, m := range metrics {
		if m.AvgScore > 1 && m.PositiveRatio > 0.6 && m.TotalCalls >= 3 {
			praise = append(praise, m)
		}
		if m.AvgScore < 0 && m.NegativeRatio > 0.3 && m.TotalCalls >= 3 {
			develop = append(develop, m)
		}
	}
	sort.Slice(praise, func(i, j int) bool { return praise[i].AvgScore > praise[j].AvgScore })
	sort.Slice(develop, func(i, j int) bool { return develop[i].AvgScore < develop[j].AvgScore })
	if len(praise) > 2 {
		praise = praise[:2]
	}
	if len(develop) > 2 {
		develop = develop[:2]
	}

	if len(praise) > 0 {
		b.WriteString("Agents for Praise (High Avg Score & Pos. Ratio):\n")
		for _, m := range praise {
			fmt.Fprintf(b, "   - %s (Avg Score: %.2f, Pos Ratio: %.0f%%)\n", m.Name, m.AvgScore, m.PositiveRatio*100)
		}
	} else {
		b.WriteString("   - No agents specifically identified for praise based on current high-performance thresholds.\n")
	}
	if len(develop) > 0 {
		b.WriteString("Agents for Development (Low Avg Score & High Neg. Ratio):\n")
		for _, m := range develop {
			fmt.Fprintf(b, "   - %s (Avg Score: %.2f, Neg Call Ratio: %.0f%%)\n", m.Name, m.AvgScore, m.NegativeRatio*100)
		}
	} else {
		b.WriteString("   - No agents specifically identified for development focus based on current thresholds.\n")
	}
}

// AgentBadges is one agent's earned recognition labels.
type AgentBadges struct {
	Name   string   `json:"name"`
	Badges []string `json:"badges"`
}

// Badges awards recognition labels per agent. Team Uplifter compares against
// the team-wide average score of the same run.
func Badges(res types.AggregateResult) []AgentBadges {
	names := make([]string, 0, len(res.AgentMetrics))
	for name := range res.AgentMetrics {
		names = append(names, name)
	}
	sort.Strings(names)

	out := []AgentBadges{}
	for _, name := range names {
		m := res.AgentMetrics[name]
		var badges []string
		if m.ShortCalls >= (m.TotalCalls+1)/2 && float64(m.DistinctPositiveCalls) >= float64(m.TotalCalls)*0.7 {
			badges = append(badges, "Resolution Hero")
		}
		if m.AvgScore >= res.Summary.AvgScore {
			badges = append(badges, "Team Uplifter")
		}
		if m.SumNegativeFlags == 0 && m.DistinctPositiveCalls == m.TotalCalls && m.TotalCalls > 0 {
			badges = append(badges, "Clarity Master")
		}
		if len(badges) > 0 {
			out = append(out, AgentBadges{Name: name, Badges: badges})
		}
	}
	return out
}

// RepeatReport renders the repeat-caller list as review-ready text, one block
// per customer, identifiers masked.
func RepeatReport(callers []types.RepeatCaller) string {
	if len(callers) == 0 {
		return "No repeat callers found in the current dataset.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Repeat Caller Report (%d customers)\n", len(callers))

	totalRisk, highRisk := 0, 0
	patternFreq := map[string]int{}
	for _, rc := range callers {
		totalRisk += rc.RiskScore
		if rc.RiskScore >= 60 {
			highRisk++
		}
		for _, tag := range rc.PatternTags {
			patternFreq[tag]++
		}
	}
	fmt.Fprintf(&b, "Average risk: %.0f/100, %d high-risk (60+).\n", float64(totalRisk)/float64(len(callers)), highRisk)
	if common := sortedByCount(patternFreq); len(common) > 0 {
		if len(common) > 3 {
			common = common[:3]
		}
		fmt.Fprintf(&b, "Common patterns: %s.\n", strings.Join(common, "; "))
	}
	b.WriteString("\n")

	for _, rc := range callers {
		fmt.Fprintf(&b, "%s — %d calls over %d day(s), risk %d/100\n",
			MaskIdentifier(rc.Identifier), rc.CallCount, rc.SpanDays, rc.RiskScore)
		if len(rc.TopThemes) > 0 {
			fmt.Fprintf(&b, "   Themes: %s\n", strings.Join(rc.TopThemes, ", "))
		}
		if rc.AgentTrail != "" {
			fmt.Fprintf(&b, "   Agents: %s\n", rc.AgentTrail)
		}
		if len(rc.PatternTags) > 0 {
			fmt.Fprintf(&b, "   Patterns: %s\n", strings.Join(rc.PatternTags, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
