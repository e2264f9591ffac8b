// Package transcript turns raw text/HTML contact-center exports into call
// records. The format is semi-structured and positional, so this is a
// line-oriented state machine with recovery, not a grammar parser: malformed
// metadata yields placeholders, never an error.
package transcript

import (
	"regexp"
	"strings"

	"github.com/k3a/html2text"

	"call-insights-go/internal/themes"
	"call-insights-go/internal/types"
)

// contactIDPattern matches the 36-character hyphenated hex contact IDs that
// delimit call blocks in the export.
var (
	contactIDPattern = regexp.MustCompile(`^(?i)[a-f0-9-]{36}$`)
	timePrefix       = regexp.MustCompile(`^\d{2}:\d{2}`)
	genAIPrefix      = regexp.MustCompile(`(?i)^Generated by AI\s*`)
)

// metadataFieldOrder is every metadata field the export carries, in export
// order. All of them start as "N/A" so missing columns read as placeholders.
var metadataFieldOrder = []string{
	types.MetaContactID, "Channel", "Contact status", "Initiation timestamp",
	"System phone number / email address", "Queue", "Agent", "Recording/Transcript",
	"Customer phone number / email address", "Disconnect timestamp", "Contact duration",
	"Agent name", "Agent first name", "Agent last name", "Routing profile",
	"Connected to agent timestamp", "ACW start timestamp", "ACW end timestamp",
	"Agent interaction duration", "Agent connection attempts", "Number of holds",
	"Is transferred out", "Initiation method", "Disconnect reason",
	"First contact flow name", "First contact flow ID", "Enqueue timestamp",
	"Fraud detection result",
}

// The export splits metadata over two tab-delimited lines; these are the
// positional field lists for each.
var shortMetadataFields = []string{
	"Channel", "Contact status", "Initiation timestamp",
	"System phone number / email address", "Queue", "Agent", "Recording/Transcript",
}

var longMetadataFields = []string{
	"Customer phone number / email address", "Disconnect timestamp", "Contact duration",
	"Agent name", "Agent first name", "Agent last name", "Routing profile",
	"Connected to agent timestamp", "ACW start timestamp", "ACW end timestamp",
	"Agent interaction duration", "Agent connection attempts", "Number of holds",
	"Is transferred out", "Initiation method", "Disconnect reason",
	"First contact flow name", "First contact flow ID", "Enqueue timestamp",
	"Fraud detection result",
}

// Parser owns the duplicate-contact-ID set for one upload batch. It is the
// only state shared across files within a batch; build a fresh Parser per
// batch and discard it.
type Parser struct {
	seen map[string]struct{}
}

func NewParser() *Parser {
	return &Parser{seen: make(map[string]struct{})}
}

// Seen reports whether a contact ID was already ingested in this batch.
func (p *Parser) Seen(id string) bool {
	_, ok := p.seen[id]
	return ok
}

// Mark records a contact ID as ingested. Other ingest paths (spreadsheets,
// JSON re-imports) share the same set so the duplicate policy is uniform.
func (p *Parser) Mark(id string) {
	p.seen[id] = struct{}{}
}

// Result is the outcome of parsing one file.
type Result struct {
	Calls      []types.Call
	Duplicates int
}

// ParseHTML strips markup and runs the line parser over what remains.
func (p *Parser) ParseHTML(src string) Result {
	return p.Parse(html2text.HTML2Text(src))
}

// Parse scans raw export text and emits zero or more calls. Blocks whose
// contact ID was already seen are skipped wholesale and counted.
func (p *Parser) Parse(text string) Result {
	rawLines := strings.Split(text, "\n")
	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = strings.TrimSpace(strings.TrimSuffix(l, "\r"))
	}

	var res Result
	i := 0
	for i < len(lines) {
		if !contactIDPattern.MatchString(lines[i]) {
			i++
			continue
		}
		contactID := lines[i]
		if p.Seen(contactID) {
			res.Duplicates++
			i++
			for i < len(lines) && (!contactIDPattern.MatchString(lines[i]) || lines[i] == contactID) {
				i++
			}
			continue
		}
		p.Mark(contactID)

		meta := make(map[string]string, len(metadataFieldOrder))
		for _, f := range metadataFieldOrder {
			meta[f] = "N/A"
		}
		meta[types.MetaContactID] = contactID
		i++

		i = skipBlank(lines, i)
		if i < len(lines) {
			applyFields(meta, shortMetadataFields, strings.Split(lines[i], "\t"))
			i++
			i = skipBlank(lines, i)
			if i < len(lines) {
				applyFields(meta, longMetadataFields, strings.Split(lines[i], "\t"))
				i++
			}
		}

		call := parseBody(lines, &i, meta)
		res.Calls = append(res.Calls, call)
	}
	return res
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && lines[i] == "" {
		i++
	}
	return i
}

func applyFields(meta map[string]string, fields, values []string) {
	for j := 0; j < len(fields) && j < len(values); j++ {
		if values[j] == "" {
			meta[fields[j]] = "N/A"
		} else {
			meta[fields[j]] = values[j]
		}
	}
}

// section is the active labeled-section accumulator inside a call body.
type section int

const (
	sectionNone section = iota
	sectionIssue
	sectionOutcome
	sectionSummary
	sectionCategories
)

// sectionFor is the pure label-transition function: given a body line and the
// current section it returns the next section and whether the line was a
// label at all. An "audio" label clears the accumulator.
func sectionFor(line string, cur section) (section, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "issue":
		return sectionIssue, true
	case "outcome":
		return sectionOutcome, true
	case "summary":
		return sectionSummary, true
	case "categories":
		return sectionCategories, true
	case "audio":
		return sectionNone, true
	}
	return cur, false
}

func isSpeakerLine(lower string) bool {
	return lower == "agent" || lower == "customer" || lower == "system"
}

// parseBody consumes lines until the next contact-ID line or end of input,
// switching between the transcript sub-state (speaker/timestamp/text
// triplets) and labeled free-text sections.
func parseBody(lines []string, i *int, meta map[string]string) types.Call {
	var utterances []types.Utterance
	flags := newOrderedSet()
	positive := newOrderedSet()
	var issue, outcome, summary, categories strings.Builder

	cur := sectionNone
	foundTranscriptMarker := false
	inTranscript := false

	for *i < len(lines) && !contactIDPattern.MatchString(lines[*i]) {
		line := lines[*i]
		if line == "" {
			*i++
			continue
		}
		lower := strings.ToLower(line)

		if !foundTranscriptMarker && lower == "transcript" {
			foundTranscriptMarker = true
			*i++
			continue
		}
		if lower == "categories" {
			cur = sectionCategories
			*i++
			continue
		}

		if foundTranscriptMarker && !inTranscript {
			if isSpeakerLine(lower) {
				inTranscript = true
				if cur == sectionCategories {
					cur = sectionNone
				}
				// fall through: this line starts the first triplet
			} else {
				if cur == sectionCategories {
					categories.WriteString(line + ", ")
				}
				*i++
				continue
			}
		}

		if inTranscript {
			if cur == sectionCategories {
				cur = sectionNone
			}
			if isSpeakerLine(lower) && *i+2 < len(lines) {
				tsLine := lines[*i+1]
				if timePrefix.MatchString(tsLine) {
					text := lines[*i+2]
					lineFlags := themes.MatchNegative(text)
					linePositive := themes.MatchPositive(text)
					utterances = append(utterances, types.Utterance{
						Speaker:       line,
						Timestamp:     tsLine,
						Text:          text,
						Flags:         lineFlags,
						PositiveFlags: linePositive,
					})
					flags.AddAll(lineFlags)
					positive.AddAll(linePositive)
					*i += 3
					continue
				}
			}
			*i++
			continue
		}

		if next, isLabel := sectionFor(line, cur); isLabel {
			cur = next
			*i++
			continue
		}
		if cur != sectionNone {
			clean := strings.TrimSpace(genAIPrefix.ReplaceAllString(line, ""))
			switch cur {
			case sectionIssue:
				issue.WriteString(clean + " ")
			case sectionOutcome:
				outcome.WriteString(clean + " ")
			case sectionSummary:
				summary.WriteString(clean + " ")
			case sectionCategories:
				categories.WriteString(clean + ", ")
			}
		}
		*i++
	}

	if cats := strings.TrimSuffix(strings.TrimSpace(categories.String()), ","); cats != "" {
		meta[types.MetaCategories] = strings.TrimSpace(cats)
	}

	return types.Call{
		Meta:          meta,
		Transcript:    utterances,
		Flags:         flags.Values(),
		PositiveFlags: positive.Values(),
		Issue:         strings.TrimSpace(issue.String()),
		Outcome:       strings.TrimSpace(outcome.String()),
		Summary:       strings.TrimSpace(summary.String()),
		PositiveScore: positive.Len() - flags.Len(),
	}
}

// orderedSet keeps first-seen order so flag output is deterministic.
type orderedSet struct {
	seen map[string]struct{}
	vals []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) AddAll(vals []string) {
	for _, v := range vals {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.vals = append(s.vals, v)
	}
}

func (s *orderedSet) Len() int { return len(s.vals) }

func (s *orderedSet) Values() []string {
	if s.vals == nil {
		return []string{}
	}
	return s.vals
}
