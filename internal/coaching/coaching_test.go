package coaching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights-go/internal/types"
)

func TestMaskIdentifier(t *testing.T) {
	assert.Equal(t, "555****4567", MaskIdentifier("5551234567"))
	assert.Equal(t, "+155****4567", MaskIdentifier("+15551234567"))
	// Email identifiers pass through untouched.
	assert.Equal(t, "jane@example.com", MaskIdentifier("jane@example.com"))
	// Too short to match the pattern: left as-is.
	assert.Equal(t, "12345", MaskIdentifier("12345"))
}

func TestOutlookText(t *testing.T) {
	res := types.AggregateResult{
		Summary: types.SummaryStats{
			TotalCalls:         10,
			AvgScore:           1.5,
			AvgDurationSeconds: 300,
		},
		FlagDistribution: map[string]int{"bill": 4, "escalate": 1},
		CustomerGroups: map[string]*types.CustomerGroup{
			"a": {CallCount: 3},
			"b": {CallCount: 1},
		},
	}
	text := OutlookText(res)
	assert.Contains(t, text, "Coaching Summary (10 calls)")
	assert.Contains(t, text, "Avg Engagement Score: 1.5")
	assert.Contains(t, text, "Avg Duration: 5.0 min")
	assert.Contains(t, text, "Top Coaching Theme: Billing (4 times)")
	assert.Contains(t, text, "1 customers contacted more than once (50.0% of unique customers)")
}

func TestSummaryTextSections(t *testing.T) {
	res := types.AggregateResult{
		Summary: types.SummaryStats{TotalCalls: 6, AvgScore: 0.5, AvgDurationSeconds: 240},
		AgentMetrics: map[string]*types.AgentMetric{
			"Amy": {Name: "Amy", TotalCalls: 3, AvgScore: 2.5, PositiveRatio: 0.9},
			"Ben": {Name: "Ben", TotalCalls: 3, AvgScore: -1.2, NegativeRatio: 0.8},
		},
		TopAgents:        []*types.AgentMetric{{Name: "Amy"}},
		FlagDistribution: map[string]int{"bill": 2},
		CustomerGroups: map[string]*types.CustomerGroup{
			"5551234567": {Identifier: "5551234567", CallCount: 3},
		},
		AppliedWeights: types.DefaultWeights(),
	}

	text := SummaryText(res)
	assert.Contains(t, text, "6 calls were analyzed")
	assert.Contains(t, text, "Congratulations to Amy")
	assert.Contains(t, text, "Key Themes (Negative Flags)")
	assert.Contains(t, text, "Billing")
	// Repeat identifiers are masked in the callback focus block.
	assert.Contains(t, text, "555****4567 (3 calls)")
	assert.NotContains(t, text, "5551234567")
	assert.Contains(t, text, "Agents for Praise")
	assert.Contains(t, text, "Amy (Avg Score: 2.50, Pos Ratio: 90%)")
	assert.Contains(t, text, "Agents for Development")
	assert.Contains(t, text, "Ben (Avg Score: -1.20, Neg Call Ratio: 80%)")
	assert.Contains(t, text, "Formula used: +2/pos.flag, +2/short pos. call, -1/flag, -2/callback hit.")
}

func TestSummaryTextNoRepeats(t *testing.T) {
	res := types.AggregateResult{
		Summary:        types.SummaryStats{TotalCalls: 1},
		AppliedWeights: types.DefaultWeights(),
	}
	text := SummaryText(res)
	assert.Contains(t, text, "First-Call Resolution")
	assert.Contains(t, text, "No agent data to display")
}

func TestBadges(t *testing.T) {
	res := types.AggregateResult{
		Summary: types.SummaryStats{AvgScore: 1.0},
		AgentMetrics: map[string]*types.AgentMetric{
			// Short efficient calls, mostly positive: Resolution Hero. Also
			// above team average: Team Uplifter.
			"Amy": {Name: "Amy", TotalCalls: 4, ShortCalls: 3, DistinctPositiveCalls: 3, AvgScore: 2.0},
			// Flawless: every call positive, zero flags.
			"Cal": {Name: "Cal", TotalCalls: 2, ShortCalls: 0, DistinctPositiveCalls: 2, SumNegativeFlags: 0, AvgScore: 3.0},
			// Nothing earned.
			"Ben": {Name: "Ben", TotalCalls: 5, ShortCalls: 0, DistinctPositiveCalls: 0, SumNegativeFlags: 4, AvgScore: -2.0},
		},
	}

	badges := Badges(res)
	byName := map[string][]string{}
	for _, b := range badges {
		byName[b.Name] = b.Badges
	}
	assert.Contains(t, byName["Amy"], "Resolution Hero")
	assert.Contains(t, byName["Amy"], "Team Uplifter")
	assert.Contains(t, byName["Cal"], "Clarity Master")
	assert.NotContains(t, byName, "Ben")

	// Deterministic order: sorted by agent name.
	require.Len(t, badges, 2)
	assert.Equal(t, "Amy", badges[0].Name)
	assert.Equal(t, "Cal", badges[1].Name)
}

func TestRepeatReport(t *testing.T) {
	callers := []types.RepeatCaller{{
		Identifier:  "5551234567",
		CallCount:   3,
		SpanDays:    5,
		RiskScore:   45,
		TopThemes:   []string{"Billing", "Technical"},
		AgentTrail:  "Amy → Ben → Amy",
		PatternTags: []string{"Missed Resolution"},
	}}
	text := RepeatReport(callers)
	assert.Contains(t, text, "Repeat Caller Report (1 customers)")
	assert.Contains(t, text, "Average risk: 45/100, 0 high-risk (60+).")
	assert.Contains(t, text, "Common patterns: Missed Resolution.")
	assert.Contains(t, text, "555****4567 — 3 calls over 5 day(s), risk 45/100")
	assert.Contains(t, text, "Themes: Billing, Technical")
	assert.Contains(t, text, "Agents: Amy → Ben → Amy")
	assert.Contains(t, text, "Patterns: Missed Resolution")
	assert.False(t, strings.Contains(text, "5551234567"))
}

func TestRepeatReportEmpty(t *testing.T) {
	assert.Contains(t, RepeatReport(nil), "No repeat callers")
}
