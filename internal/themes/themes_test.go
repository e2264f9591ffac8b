package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThemeForDeterminism(t *testing.T) {
	first := ThemeFor("GDPR complaint")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ThemeFor("GDPR complaint"))
	}
}

func TestThemeForTableLookup(t *testing.T) {
	assert.Equal(t, "Billing", ThemeFor("billing issue"))
	assert.Equal(t, "Billing", ThemeFor("Billing Issue"))
	assert.Equal(t, "Resolution Failure", ThemeFor("issue not resolved"))
	assert.Equal(t, "Call Experience", ThemeFor("escalate"))
	assert.Equal(t, "Product Issue", ThemeFor("defective product"))
}

func TestThemeForSubstringOrder(t *testing.T) {
	// "dispute charge about internet" contains both "dispute charge" (Billing)
	// and "internet" (Technical fallback); the table entry wins.
	assert.Equal(t, "Billing", ThemeFor("dispute charge about internet"))
	// First matching table entry wins when several could match.
	assert.Equal(t, "Billing", ThemeFor("payment failed due to technical support outage"))
}

func TestThemeForFallbackGroups(t *testing.T) {
	assert.Equal(t, "Billing", ThemeFor("unexpected invoice fee"))
	assert.Equal(t, "Agent Interaction", ThemeFor("rude tone from rep"))
	assert.Equal(t, "Technical", ThemeFor("tech trouble"))
}

func TestThemeForUnknown(t *testing.T) {
	assert.Equal(t, "Other", ThemeFor(""))
	assert.Equal(t, "Other", ThemeFor("xyzzy-9000!"))
	// Long phrases never become their own theme.
	assert.Equal(t, "Other", ThemeFor("somethingveryverylongandunmatchablezz"))
	// A short clean phrase with no keyword hit is accepted as its own theme.
	assert.Equal(t, "Wifi woes", ThemeFor("wifi woes"))
}

func TestMatchNegativeOrderAndDedup(t *testing.T) {
	got := MatchNegative("I want to cancel, this is a technical issue and I am frustrated")
	// Trigger-list order, not text order: "cancel" precedes "frustrated"
	// precedes "technical issue" precedes "issue".
	assert.Equal(t, []string{"cancel", "frustrated", "technical issue", "issue"}, got)
}

func TestMatchNegativeSubstringContainment(t *testing.T) {
	// Raw substring semantics: "cancel" matches inside "cancellation".
	got := MatchNegative("asking about the cancellation policy")
	assert.Contains(t, got, "cancel")
	assert.Contains(t, got, "policy")
}

func TestMatchPositive(t *testing.T) {
	got := MatchPositive("Thank you, the problem is resolved and I am satisfied")
	// "resolved" also contains "solved"; both report under substring rules.
	assert.Equal(t, []string{"satisfied", "thank you", "resolved", "solved"}, got)
	assert.Empty(t, MatchPositive(""))
}
