package ingest

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"call-insights-go/internal/themes"
	"call-insights-go/internal/types"
)

// Candidate column names for the generic-tabular sniffer, all compared
// case-insensitively, first header wins.
var (
	idCandidates    = []string{"contact id", "contactid", "id", "callid", "call id"}
	agentCandidates = []string{"agent name", "agent", "rep name", "employee name"}
	timeCandidates  = []string{"timestamp", "initiation timestamp", "date", "call time"}
	textCandidates  = []string{"text", "transcript", "message", "notes", "description"}
)

func matchesAny(header string, candidates []string) bool {
	l := strings.ToLower(strings.TrimSpace(header))
	for _, c := range candidates {
		if l == c {
			return true
		}
	}
	return false
}

func firstColumn(headers []string, row map[string]string, candidates []string) (string, bool) {
	for _, h := range headers {
		if matchesAny(h, candidates) {
			return row[h], true
		}
	}
	return "", false
}

// convertGenericRows turns arbitrary tabular rows into calls. Columns are
// sniffed by name; everything unmatched folds into meta. Flags come from a
// raw substring scan of the text column (no word boundaries; "cancel"
// matches inside "cancellation" by contract).
func (s *Session) convertGenericRows(headers []string, rows []map[string]string, fileName string) (calls []types.Call, duplicates int) {
	for _, row := range rows {
		contactID, _ := firstColumn(headers, row, idCandidates)
		synthetic := false
		if contactID == "" || contactID == "Unknown" {
			contactID = "generic-" + uuid.NewString()
			synthetic = true
		}
		if !synthetic && s.parser.Seen(contactID) {
			duplicates++
			continue
		}
		s.parser.Mark(contactID)

		agent, _ := firstColumn(headers, row, agentCandidates)
		if agent == "" {
			agent = "Unknown"
		}
		timestamp, _ := firstColumn(headers, row, timeCandidates)
		text, _ := firstColumn(headers, row, textCandidates)

		meta := map[string]string{
			types.MetaContactID:  contactID,
			types.MetaAgentName:  agent,
			types.MetaInitiation: timestamp,
			types.MetaSource:     fileName,
		}
		for _, h := range headers {
			if _, taken := meta[h]; taken {
				continue
			}
			if matchesAny(h, idCandidates) || matchesAny(h, agentCandidates) ||
				matchesAny(h, timeCandidates) || matchesAny(h, textCandidates) {
				continue
			}
			if h == "flags" || h == "positiveFlags" {
				continue
			}
			meta[h] = row[h]
		}

		var utterances []types.Utterance
		if text != "" {
			utterances = append(utterances, types.Utterance{
				Speaker:       "System",
				Timestamp:     "00:00",
				Text:          text,
				Flags:         []string{},
				PositiveFlags: []string{},
			})
		}

		flags := themes.MatchNegative(text)
		positive := themes.MatchPositive(text)
		// Native exports carry explicit flag columns; those win over the scan.
		if v, ok := row["flags"]; ok && v != "" {
			flags = splitFlagList(v)
		}
		if v, ok := row["positiveFlags"]; ok && v != "" {
			positive = splitFlagList(v)
		}
		if flags == nil {
			flags = []string{}
		}
		if positive == nil {
			positive = []string{}
		}

		summary := text
		if len(summary) > 200 {
			summary = summary[:200]
		}

		calls = append(calls, types.Call{
			Meta:          meta,
			Transcript:    utterances,
			Flags:         flags,
			PositiveFlags: positive,
			Summary:       summary,
			PositiveScore: len(positive) - len(flags),
		})
	}
	return calls, duplicates
}

func splitFlagList(v string) []string {
	parts := strings.Split(v, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// auditPayload is the JSON shape written into the audit-template export, one
// call per row.
type auditPayload struct {
	ContactID     string            `json:"contactId,omitempty"`
	Agent         string            `json:"agent,omitempty"`
	Timestamp     string            `json:"timestamp,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
	Transcript    []types.Utterance `json:"transcript,omitempty"`
	Flags         []string          `json:"flags,omitempty"`
	PositiveFlags []string          `json:"positiveFlags,omitempty"`
	Issue         string            `json:"issue,omitempty"`
	Outcome       string            `json:"outcome,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	PositiveScore *int              `json:"positiveScore,omitempty"`
}

// EncodeAuditPayload serializes one call into the JSON cell the audit export
// carries, the exact shape importAuditRows reads back.
func EncodeAuditPayload(call types.Call) ([]byte, error) {
	score := call.PositiveScore
	return json.Marshal(auditPayload{
		ContactID:     call.ContactID(),
		Agent:         call.AgentName(),
		Timestamp:     call.Meta[types.MetaInitiation],
		Meta:          call.Meta,
		Transcript:    call.Transcript,
		Flags:         call.Flags,
		PositiveFlags: call.PositiveFlags,
		Issue:         call.Issue,
		Outcome:       call.Outcome,
		Summary:       call.Summary,
		PositiveScore: &score,
	})
}

// importAuditRows deserializes round-tripped export rows back into full
// calls, applying the same duplicate-ID skip policy as the text parser.
func (s *Session) importAuditRows(rows []map[string]string) (calls []types.Call, duplicates int) {
	for _, row := range rows {
		cell := row[AuditPayloadColumn]
		if cell == "" {
			continue
		}
		var p auditPayload
		if err := json.Unmarshal([]byte(cell), &p); err != nil {
			s.log.WithError(err).Warn("skipping audit row with unreadable payload")
			continue
		}
		contactID := p.ContactID
		if contactID == "" && p.Meta != nil {
			contactID = p.Meta[types.MetaContactID]
		}
		if contactID != "" && s.parser.Seen(contactID) {
			duplicates++
			continue
		}
		if contactID != "" {
			s.parser.Mark(contactID)
		}

		meta := p.Meta
		if meta == nil {
			meta = map[string]string{
				types.MetaContactID:  contactID,
				types.MetaAgentName:  p.Agent,
				types.MetaInitiation: p.Timestamp,
			}
		}
		flags := p.Flags
		if flags == nil {
			flags = []string{}
		}
		positive := p.PositiveFlags
		if positive == nil {
			positive = []string{}
		}
		transcript := p.Transcript
		if transcript == nil {
			transcript = []types.Utterance{}
		}
		score := len(positive) - len(flags)
		if p.PositiveScore != nil {
			score = *p.PositiveScore
		}

		calls = append(calls, types.Call{
			Meta:          meta,
			Transcript:    transcript,
			Flags:         flags,
			PositiveFlags: positive,
			Issue:         p.Issue,
			Outcome:       p.Outcome,
			Summary:       p.Summary,
			PositiveScore: score,
		})
	}
	return calls, duplicates
}

// enrichmentIDColumns includes the snake_case variant some exports use.
var enrichmentIDColumns = []string{"Contact ID", "ContactID", "tact ID", "contact_id"}

// normalizeMetaKey repairs truncated or shortened headers before merging.
func normalizeMetaKey(key string) string {
	switch key {
	case "tact ID":
		return types.MetaContactID
	case "System phone number":
		return "System phone number / email address"
	case "Customer phone number":
		return types.MetaCustomer
	}
	return key
}

// enhanceCalls merges metadata-only rows into already-loaded calls by contact
// ID. First write wins: a field that already holds a meaningful value is
// never overwritten. Returns how many calls were enhanced and how many row
// IDs matched nothing.
func enhanceCalls(calls []types.Call, headers []string, rows []map[string]string) (enhanced, notFound int) {
	byID := make(map[string]*types.Call, len(calls))
	for i := range calls {
		id := calls[i].ContactID()
		if id != "" && id != "N/A" && id != "Unknown" {
			byID[id] = &calls[i]
		}
	}

	for _, row := range rows {
		var contactID string
		for _, c := range enrichmentIDColumns {
			if v := row[c]; v != "" {
				contactID = v
				break
			}
		}
		if contactID == "" {
			continue
		}
		call, ok := byID[contactID]
		if !ok {
			notFound++
			continue
		}
		enhanced++
		for _, h := range headers {
			value := row[h]
			if value == "" || value == "N/A" {
				continue
			}
			key := normalizeMetaKey(h)
			if cur, exists := call.Meta[key]; !exists || cur == "" || cur == "N/A" {
				call.Meta[key] = value
			}
		}
	}
	return enhanced, notFound
}
