// internal/types/results.go
package types

// --------------------------------------------
// Scoring configuration
// --------------------------------------------

// FormulaWeights are the four signed knobs of the coaching formula. Penalty
// weights are expected to be negative. Immutable within one aggregation pass.
type FormulaWeights struct {
	PositiveFlag      int `json:"pointsPositiveFlag"`
	ShortPositiveCall int `json:"pointsShortPositiveCall"`
	NegativeFlag      int `json:"penaltyFlag"`
	CallbackPenalty   int `json:"penaltyCallback"`
}

func DefaultWeights() FormulaWeights {
	return FormulaWeights{
		PositiveFlag:      2,
		ShortPositiveCall: 2,
		NegativeFlag:      -1,
		CallbackPenalty:   -2,
	}
}

// Filter narrows the scored population. Agent is "all" or an exact name.
type Filter struct {
	Agent string `json:"agent"`
}

func (f Filter) MatchesAgent(name string) bool {
	return f.Agent == "" || f.Agent == "all" || f.Agent == name
}

// --------------------------------------------
// Aggregation output
// --------------------------------------------

type AgentMetric struct {
	Name                  string  `json:"name"`
	TotalCalls            int     `json:"total_calls"`
	DistinctFlaggedCalls  int     `json:"distinct_flagged_calls"`
	DistinctPositiveCalls int     `json:"distinct_positive_calls"`
	NeutralCalls          int     `json:"neutral_calls"`
	ShortCalls            int     `json:"short_calls"`
	SumPositiveFlags      int     `json:"sum_positive_flags"`
	SumNegativeFlags      int     `json:"sum_negative_flags"`
	CallbackHits          int     `json:"callback_hits"`
	TotalScore            int     `json:"total_score"`
	TotalDurationSeconds  int     `json:"total_duration_seconds"`
	AvgScore              float64 `json:"avg_score"`
	AvgDurationSeconds    float64 `json:"avg_duration_seconds"`
	PositiveRatio         float64 `json:"positive_ratio"`
	NegativeRatio         float64 `json:"negative_ratio"`
}

type SummaryStats struct {
	TotalCalls           int     `json:"total_calls"`
	FlaggedCalls         int     `json:"flagged_calls"`
	PositiveCalls        int     `json:"positive_calls"`
	TotalScore           int     `json:"total_score"`
	AvgScore             float64 `json:"avg_score"`
	TotalDurationSeconds int     `json:"total_duration_seconds"`
	AvgDurationSeconds   float64 `json:"avg_duration_seconds"`
}

// CustomerCall is the compact per-call view kept inside customer groupings.
type CustomerCall struct {
	ContactID string   `json:"contact_id"`
	Timestamp string   `json:"timestamp"`
	Agent     string   `json:"agent"`
	Flags     []string `json:"flags"`
}

// CustomerGroup collects every contact from one customer identifier. Groups
// are always built over the full unfiltered call set so callback history
// reflects the customer's true cross-agent contact pattern.
type CustomerGroup struct {
	Identifier string         `json:"identifier"`
	CallCount  int            `json:"call_count"`
	Calls      []CustomerCall `json:"calls"`
	FlagCounts map[string]int `json:"flag_counts"`
	FirstCall  string         `json:"first_call"`
	LatestCall string         `json:"latest_call"`
}

// ScoredCall is a call with the score the aggregator assigned under the
// weights of that run.
type ScoredCall struct {
	Call
	CalculatedScore int `json:"calculatedScore"`
}

// AggregateResult is the dashboard view-model. Every map is non-nil even for
// an empty input so downstream consumers need no special-casing.
type AggregateResult struct {
	CallCount                     int                     `json:"call_count"`
	Summary                       SummaryStats            `json:"summary"`
	AgentMetrics                  map[string]*AgentMetric `json:"agent_metrics"`
	FlagDistribution              map[string]int          `json:"flag_distribution"`
	PositiveIndicatorDistribution map[string]int          `json:"positive_indicator_distribution"`
	HourDistribution              [24]int                 `json:"hour_distribution"`
	DayDistribution               [7]int                  `json:"day_distribution"`
	ChannelDistribution           map[string]int          `json:"channel_distribution"`
	QueueDistribution             map[string]int          `json:"queue_distribution"`
	CategoryDistribution          map[string]int          `json:"category_distribution"`
	WordFrequency                 map[string]int          `json:"word_frequency"`
	CustomerGroups                map[string]*CustomerGroup `json:"customer_groups"`
	ProcessedCalls                []ScoredCall            `json:"processed_calls"`
	TopAgents                     []*AgentMetric          `json:"top_agents"`
	TopPositiveCalls              []ScoredCall            `json:"top_positive_calls"`
	AppliedWeights                FormulaWeights          `json:"applied_weights"`
}

// --------------------------------------------
// Repeat-caller output
// --------------------------------------------

// RepeatCaller describes one customer with two or more contacts. RiskScore is
// a heuristic ranking aid bounded to [0,100], not a calibrated probability.
type RepeatCaller struct {
	Identifier  string         `json:"identifier"`
	CallCount   int            `json:"call_count"`
	FirstCall   string         `json:"first_call"`
	LastCall    string         `json:"last_call"`
	SpanDays    int            `json:"span_days"`
	ThemeCounts map[string]int `json:"theme_counts"`
	TopThemes   []string       `json:"top_themes"`
	AgentTrail  string         `json:"agent_trail"`
	PatternTags []string       `json:"pattern_tags"`
	RiskScore   int            `json:"risk_score"`
	Calls       []CustomerCall `json:"calls"`
}
