// Package themes holds the static keyword dictionaries: the flag-to-theme
// mapping used for grouped reporting and the positive/negative trigger lists
// scanned against transcript text.
package themes

import (
	"regexp"
	"strings"
	"unicode"
)

// PositiveTriggers are sentiment-bearing phrases signaling desirable agent
// behavior. Matching is raw substring containment, no word boundaries.
var PositiveTriggers = []string{
	"excellent", "awesome", "fantastic", "happy", "satisfied", "appreciate", "helpful", "thanks", "thank you",
	"resolved", "solution", "fixed", "solved", "working", "successful",
	"great job", "great service", "good job", "patient", "kind", "understanding",
	"loyal", "recommend", "refer", "continue service", "sign up again",
	"perfect", "wonderful", "brilliant", "superb", "exceptional", "outstanding",
}

// NegativeTriggers are the coaching-worthy phrases. Same matching rules.
var NegativeTriggers = []string{
	"cancel", "refund", "unhappy", "disappointed", "upset", "frustrated", "angry",
	"supervisor", "manager", "escalate", "speak to someone else", "higher up",
	"disconnect", "hang up", "technical issue", "doesn't work", "not working", "error",
	"bill", "charge", "overcharge", "payment", "cost", "price", "expensive",
	"gdpr", "privacy", "policy", "terms", "legal", "compliance", "regulation",
	"complaint", "issue", "problem", "fault", "failure", "malfunction", "broken",
	"fraud", "scam", "unauthorized", "suspicious", "security", "hack", "identity",
	"cancel service", "subscription", "upgrade", "downgrade", "change plan",
}

// mapping is an ordered flag-to-theme table. Order matters: substring lookup
// takes the first entry that matches, so more specific phrases come first
// within each block.
type mapping struct {
	Keyword string
	Theme   string
}

var themeTable = []mapping{
	// Billing & payments
	{"billing issue", "Billing"},
	{"payment failed", "Billing"},
	{"refund request", "Billing"},
	{"late fee", "Billing"},
	{"dispute charge", "Billing"},
	{"invoice", "Billing"},
	{"payment", "Billing"},
	{"charge", "Billing"},
	{"bill", "Billing"},

	// Technical support
	{"no service", "Technical"},
	{"internet down", "Technical"},
	{"slow speed", "Technical"},
	{"cannot login", "Technical"},
	{"equipment issue", "Technical"},
	{"tv issue", "Technical"},
	{"outage", "Technical"},
	{"technical support", "Technical"},
	{"issue", "Technical"},
	{"problem", "Technical"},

	// Account management
	{"update address", "Account"},
	{"change plan", "Account"},
	{"cancel service", "Account"},
	{"add user", "Account"},
	{"account access", "Account"},
	{"password reset", "Account"},

	// Agent behavior / call experience
	{"rude agent", "Agent Behavior"},
	{"agent hung up", "Agent Behavior"},
	{"long hold", "Call Experience"},
	{"unhelpful agent", "Agent Behavior"},
	{"language barrier", "Call Experience"},
	{"supervisor request", "Call Experience"},
	{"escalate", "Call Experience"},
	{"disconnected", "Call Experience"},
	{"hang up", "Call Experience"},

	// Call handling & process
	{"transfer", "Process"},
	{"callback request", "Process"},
	{"issue not resolved", "Resolution Failure"},
	{"problem not fixed", "Resolution Failure"},
	{"still an issue", "Resolution Failure"},
	{"not resolved", "Resolution Failure"},

	// Product / service
	{"defective product", "Product Issue"},
	{"missing item", "Product Issue"},
	{"wrong item", "Product Issue"},
	{"product question", "Product Inquiry"},

	// Sentiment / general
	{"complaint", "Complaint"},
	{"frustrated", "Sentiment-Negative"},
	{"confused", "Sentiment-Negative"},
	{"upset", "Sentiment-Negative"},
}

var exactTheme = func() map[string]string {
	m := make(map[string]string, len(themeTable))
	for _, e := range themeTable {
		m[e.Keyword] = e.Theme
	}
	return m
}()

var knownThemes = func() map[string]bool {
	m := map[string]bool{}
	for _, e := range themeTable {
		m[e.Theme] = true
	}
	return m
}()

// fallbackGroups are the generic keyword-category buckets, checked in fixed
// order after the table misses.
var fallbackGroups = []struct {
	Keywords []string
	Theme    string
}{
	{[]string{"bill", "payment", "charge", "refund", "invoice"}, "Billing"},
	{[]string{"tech", "service", "internet", "login", "password", "outage", "problem", "issue"}, "Technical"},
	{[]string{"account", "plan", "cancel", "address"}, "Account"},
	{[]string{"agent", "supervisor", "hold", "rude", "unhelpful"}, "Agent Interaction"},
	{[]string{"escalate", "hang up", "disconnect", "transfer"}, "Call Handling"},
	{[]string{"resolve", "fixed", "still"}, "Resolution"},
	{[]string{"product", "item"}, "Product"},
}

var cleanPhrase = regexp.MustCompile(`^[A-Z][a-z\s]+$`)

// ThemeFor maps a flag keyword into a coarse reporting theme. Pure and
// deterministic: exact match, then ordered substring match over the table,
// then the generic keyword groups, then capitalize-and-accept for short clean
// phrases, else "Other".
func ThemeFor(flag string) string {
	if flag == "" {
		return "Other"
	}
	lower := strings.ToLower(strings.TrimSpace(flag))

	if t, ok := exactTheme[lower]; ok {
		return t
	}
	for _, e := range themeTable {
		if strings.Contains(lower, e.Keyword) {
			return e.Theme
		}
	}
	for _, g := range fallbackGroups {
		for _, kw := range g.Keywords {
			if strings.Contains(lower, kw) {
				return g.Theme
			}
		}
	}

	titled := capitalize(flag)
	if len(titled) > 25 {
		return "Other"
	}
	if !cleanPhrase.MatchString(titled) && !knownThemes[titled] {
		return "Other"
	}
	return titled
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// MatchNegative returns every negative trigger contained in text, in trigger
// list order, each at most once.
func MatchNegative(text string) []string {
	return matchTriggers(text, NegativeTriggers)
}

// MatchPositive returns every positive trigger contained in text.
func MatchPositive(text string) []string {
	return matchTriggers(text, PositiveTriggers)
}

func matchTriggers(text string, triggers []string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var out []string
	for _, t := range triggers {
		if strings.Contains(lower, t) {
			out = append(out, t)
		}
	}
	return out
}
