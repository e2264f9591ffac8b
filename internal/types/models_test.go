package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentNameFallback(t *testing.T) {
	c := Call{Meta: map[string]string{MetaAgentName: "Amy Pond"}}
	assert.Equal(t, "Amy Pond", c.AgentName())

	c = Call{Meta: map[string]string{MetaAgentName: "N/A", MetaAgent: "apond"}}
	assert.Equal(t, "apond", c.AgentName())

	c = Call{Meta: map[string]string{}}
	assert.Equal(t, "Unknown", c.AgentName())
}

func TestCustomerIDFallback(t *testing.T) {
	c := Call{Meta: map[string]string{MetaCustomer: "+15551234567", MetaContactID: "id-1"}}
	assert.Equal(t, "+15551234567", c.CustomerID())

	c = Call{Meta: map[string]string{MetaCustomer: "N/A", MetaContactID: "id-1"}}
	assert.Equal(t, "id-1", c.CustomerID())
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2024-03-05T10:15:00Z",
		"2024-03-05T10:15:00",
		"2024-03-05 10:15:00",
		"2024-03-05 10:15",
		"3/5/2024 10:15",
		"2024-03-05",
	} {
		ts, ok := ParseTimestamp(s)
		require.True(t, ok, "input %q", s)
		assert.Equal(t, 2024, ts.Year())
		assert.Equal(t, 5, ts.Day())
	}

	_, ok := ParseTimestamp("")
	assert.False(t, ok)
	_, ok = ParseTimestamp("N/A")
	assert.False(t, ok)
	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestCallJSONFieldNames(t *testing.T) {
	c := Call{
		Meta:          map[string]string{MetaContactID: "id-1"},
		Flags:         []string{"bill"},
		PositiveFlags: []string{"thanks"},
		PositiveScore: 1,
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	// Wire names must stay camelCase so exports from older tooling round-trip.
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "meta")
	assert.Contains(t, m, "positiveFlags")
	assert.Contains(t, m, "positiveScore")
	assert.NotContains(t, m, "positive_flags")
}
