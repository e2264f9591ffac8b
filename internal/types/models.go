package types

import (
	"strings"
	"time"
)

// Meta keys shared across the parser, ingestor and aggregator. These are the
// literal field labels used by the contact-center export format, so they look
// like display strings on purpose.
const (
	MetaContactID  = "Contact ID"
	MetaAgentName  = "Agent name"
	MetaAgent      = "Agent"
	MetaInitiation = "Initiation timestamp"
	MetaDuration   = "Contact duration"
	MetaCustomer   = "Customer phone number / email address"
	MetaChannel    = "Channel"
	MetaQueue      = "Queue"
	MetaCategories = "Categories"
	MetaSource     = "Source"
)

// Utterance is a single transcript line with the trigger matches found on it.
type Utterance struct {
	Speaker       string   `json:"speaker"`
	Timestamp     string   `json:"timestamp"`
	Text          string   `json:"text"`
	Flags         []string `json:"flags"`
	PositiveFlags []string `json:"positiveFlags"`
}

// Call is the normalized unit of work: one customer contact with metadata,
// transcript and derived flag sets. JSON field names match the export format
// produced by the original dashboard so files round-trip cleanly.
type Call struct {
	Meta          map[string]string `json:"meta"`
	Transcript    []Utterance       `json:"transcript"`
	Flags         []string          `json:"flags"`
	PositiveFlags []string          `json:"positiveFlags"`
	Issue         string            `json:"issue"`
	Outcome       string            `json:"outcome"`
	Summary       string            `json:"summary"`
	PositiveScore int               `json:"positiveScore"`
}

func (c *Call) ContactID() string {
	return c.Meta[MetaContactID]
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy sharing no maps or slices with the receiver, so
// one copy can be enriched in place while another is read concurrently.
func (c Call) Clone() Call {
	out := c
	if c.Meta != nil {
		out.Meta = make(map[string]string, len(c.Meta))
		for k, v := range c.Meta {
			out.Meta[k] = v
		}
	}
	if c.Transcript != nil {
		out.Transcript = make([]Utterance, len(c.Transcript))
		for i, u := range c.Transcript {
			u.Flags = cloneStrings(u.Flags)
			u.PositiveFlags = cloneStrings(u.PositiveFlags)
			out.Transcript[i] = u
		}
	}
	out.Flags = cloneStrings(c.Flags)
	out.PositiveFlags = cloneStrings(c.PositiveFlags)
	return out
}

// AgentName resolves the handling agent, falling back to the short-form
// "Agent" column some exports use.
func (c *Call) AgentName() string {
	if v := c.Meta[MetaAgentName]; v != "" && v != "N/A" {
		return v
	}
	if v := c.Meta[MetaAgent]; v != "" && v != "N/A" {
		return v
	}
	return "Unknown"
}

// CustomerID is the repeat-contact grouping key. Contacts without a customer
// identifier fall back to the contact ID so they still group with themselves.
func (c *Call) CustomerID() string {
	if v := c.Meta[MetaCustomer]; v != "" && v != "N/A" && v != "Unknown" {
		return v
	}
	return c.Meta[MetaContactID]
}

// timestampLayouts covers the formats seen in real exports. The source system
// leaned on Date() leniency; we try these in order and give up quietly.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an initiation/disconnect timestamp. The zero time and
// false signal an unparseable value; callers skip, never fail.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InitiationTime parses the call's initiation timestamp.
func (c *Call) InitiationTime() (time.Time, bool) {
	return ParseTimestamp(c.Meta[MetaInitiation])
}
