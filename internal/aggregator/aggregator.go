// Package aggregator turns a set of parsed calls into the dashboard
// view-model: per-agent coaching metrics, distributions, customer groupings
// and the scored call list.
//
// The pass structure matters: customer groups are always built over the FULL
// call set first, so the callback penalty sees a customer's complete contact
// history even when the scored population is filtered to one agent.
package aggregator

import (
	"regexp"
	"sort"
	"strings"

	"call-insights-go/internal/duration"
	"call-insights-go/internal/types"
)

// shortCallSeconds is the cutoff under which a positive call earns the
// efficient-resolution bonus.
const shortCallSeconds = 240

// Aggregate scores every call matching the filter under the given weights and
// assembles the full result. All maps in the result are non-nil even when
// calls is empty.
func Aggregate(calls []types.Call, filter types.Filter, weights types.FormulaWeights) types.AggregateResult {
	res := emptyResult(weights)

	// Pass 1: customer grouping over the unfiltered set. occurrence[i] is the
	// zero-based position of call i within its customer's history; -1 means
	// the call has no usable grouping key.
	occurrence := make([]int, len(calls))
	for i := range calls {
		occurrence[i] = -1
		id := calls[i].CustomerID()
		if id == "" || id == "N/A" || id == "Unknown" {
			continue
		}
		g := res.CustomerGroups[id]
		if g == nil {
			g = &types.CustomerGroup{Identifier: id, FlagCounts: map[string]int{}}
			res.CustomerGroups[id] = g
		}
		occurrence[i] = g.CallCount
		g.CallCount++
		ts := calls[i].Meta[types.MetaInitiation]
		g.Calls = append(g.Calls, types.CustomerCall{
			ContactID: calls[i].ContactID(),
			Timestamp: ts,
			Agent:     calls[i].AgentName(),
			Flags:     calls[i].Flags,
		})
		for _, f := range calls[i].Flags {
			g.FlagCounts[f]++
		}
		if t, ok := types.ParseTimestamp(ts); ok {
			if first, ok2 := types.ParseTimestamp(g.FirstCall); !ok2 || t.Before(first) {
				g.FirstCall = ts
			}
			if latest, ok2 := types.ParseTimestamp(g.LatestCall); !ok2 || t.After(latest) {
				g.LatestCall = ts
			}
		}
	}

	// Pass 2: scoring over the filtered set.
	bothByAgent := map[string]int{}
	for i := range calls {
		call := &calls[i]
		agent := call.AgentName()
		if !filter.MatchesAgent(agent) {
			continue
		}

		m := res.AgentMetrics[agent]
		if m == nil {
			m = &types.AgentMetric{Name: agent}
			res.AgentMetrics[agent] = m
		}

		durSec := duration.ParseSeconds(call.Meta[types.MetaDuration])
		short := durSec < shortCallSeconds
		m.TotalCalls++
		m.TotalDurationSeconds += durSec
		if short {
			m.ShortCalls++
		}

		score := 0
		if len(call.Flags) > 0 {
			m.DistinctFlaggedCalls++
			res.Summary.FlaggedCalls++
			for _, f := range call.Flags {
				score += weights.NegativeFlag
				m.SumNegativeFlags++
				res.FlagDistribution[f]++
			}
		}
		if len(call.PositiveFlags) > 0 {
			m.DistinctPositiveCalls++
			res.Summary.PositiveCalls++
			for _, f := range call.PositiveFlags {
				score += weights.PositiveFlag
				m.SumPositiveFlags++
				res.PositiveIndicatorDistribution[f]++
			}
			if short {
				score += weights.ShortPositiveCall
			}
		}
		if len(call.Flags) > 0 && len(call.PositiveFlags) > 0 {
			bothByAgent[agent]++
		}
		if occurrence[i] > 0 {
			score += weights.CallbackPenalty
			m.CallbackHits++
		}
		m.TotalScore += score

		res.CallCount++
		res.Summary.TotalCalls++
		res.Summary.TotalScore += score
		res.Summary.TotalDurationSeconds += durSec

		if t, ok := call.InitiationTime(); ok {
			res.HourDistribution[t.Hour()]++
			res.DayDistribution[int(t.Weekday())]++
		}
		res.ChannelDistribution[bucket(call.Meta[types.MetaChannel])]++
		res.QueueDistribution[bucket(call.Meta[types.MetaQueue])]++
		if cats := call.Meta[types.MetaCategories]; cats != "" && cats != "N/A" {
			for _, c := range strings.Split(cats, ",") {
				if c = strings.TrimSpace(c); c != "" {
					res.CategoryDistribution[c]++
				}
			}
		}
		countWords(call, res.WordFrequency)

		res.ProcessedCalls = append(res.ProcessedCalls, types.ScoredCall{Call: *call, CalculatedScore: score})
	}

	finalizeMetrics(res.AgentMetrics, bothByAgent)
	if res.Summary.TotalCalls > 0 {
		res.Summary.AvgScore = float64(res.Summary.TotalScore) / float64(res.Summary.TotalCalls)
		res.Summary.AvgDurationSeconds = float64(res.Summary.TotalDurationSeconds) / float64(res.Summary.TotalCalls)
	}
	res.TopAgents = topAgents(res.AgentMetrics, 5)
	res.TopPositiveCalls = topPositiveCalls(res.ProcessedCalls, 5)
	return res
}

func emptyResult(weights types.FormulaWeights) types.AggregateResult {
	return types.AggregateResult{
		AgentMetrics:                  map[string]*types.AgentMetric{},
		FlagDistribution:              map[string]int{},
		PositiveIndicatorDistribution: map[string]int{},
		ChannelDistribution:           map[string]int{},
		QueueDistribution:             map[string]int{},
		CategoryDistribution:          map[string]int{},
		WordFrequency:                 map[string]int{},
		CustomerGroups:                map[string]*types.CustomerGroup{},
		ProcessedCalls:                []types.ScoredCall{},
		TopAgents:                     []*types.AgentMetric{},
		TopPositiveCalls:              []types.ScoredCall{},
		AppliedWeights:                weights,
	}
}

// bucket maps a missing distribution key to "Unknown". A literal "N/A" stays
// its own bucket; that is what the source data actually contains and hiding
// it would misreport channel coverage.
func bucket(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

// finalizeMetrics derives the averages, ratios and the neutral-call count.
// Neutral reconciles against distinct flagged/positive with the overlap added
// back, floored at zero so malformed data cannot produce a negative count.
func finalizeMetrics(metrics map[string]*types.AgentMetric, bothByAgent map[string]int) {
	for name, m := range metrics {
		neutral := m.TotalCalls - m.DistinctPositiveCalls - m.DistinctFlaggedCalls + bothByAgent[name]
		if neutral < 0 {
			neutral = 0
		}
		m.NeutralCalls = neutral
		if m.TotalCalls > 0 {
			m.AvgScore = float64(m.TotalScore) / float64(m.TotalCalls)
			m.AvgDurationSeconds = float64(m.TotalDurationSeconds) / float64(m.TotalCalls)
			m.PositiveRatio = float64(m.DistinctPositiveCalls) / float64(m.TotalCalls)
			m.NegativeRatio = float64(m.DistinctFlaggedCalls) / float64(m.TotalCalls)
		}
	}
}

func topAgents(metrics map[string]*types.AgentMetric, n int) []*types.AgentMetric {
	out := make([]*types.AgentMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgScore != out[j].AvgScore {
			return out[i].AvgScore > out[j].AvgScore
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topPositiveCalls(scored []types.ScoredCall, n int) []types.ScoredCall {
	out := make([]types.ScoredCall, 0, n)
	for _, sc := range scored {
		if sc.CalculatedScore > 0 && len(sc.PositiveFlags) > 0 {
			out = append(out, sc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CalculatedScore != out[j].CalculatedScore {
			return out[i].CalculatedScore > out[j].CalculatedScore
		}
		return out[i].ContactID() < out[j].ContactID()
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

var (
	wordSplit  = regexp.MustCompile(`[^a-zA-Z0-9']+`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// countWords tallies transcript tokens of 3 to 19 characters
// (alphanumeric-with-apostrophe), skipping pure numbers and the stopword
// list.
func countWords(call *types.Call, freq map[string]int) {
	for _, u := range call.Transcript {
		for _, w := range wordSplit.Split(strings.ToLower(u.Text), -1) {
			if len(w) < 3 || len(w) > 19 || stopwords[w] || digitsOnly.MatchString(w) {
				continue
			}
			freq[w]++
		}
	}
}
