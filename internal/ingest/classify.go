package ingest

// AuditPayloadColumn is the single-column JSON payload header written by the
// audit-template export. Kept byte-for-byte so old exports re-import.
const AuditPayloadColumn = "Raw JSON Data (Do not modify)"

// RowShape tags which ingestion mode a spreadsheet file gets. Classified once
// per file from the first row's columns and dispatched on, never re-sniffed
// per row.
type RowShape int

const (
	// ShapeGenericTabular: best-effort column sniffing, new calls per row.
	ShapeGenericTabular RowShape = iota
	// ShapeMetadataEnrichment: ID-bearing rows with no transcript-like
	// columns; merged into already-loaded calls instead of creating new ones.
	ShapeMetadataEnrichment
	// ShapeRoundTrippedExport: rows carrying one JSON-serialized call each.
	ShapeRoundTrippedExport
)

func (s RowShape) String() string {
	switch s {
	case ShapeMetadataEnrichment:
		return "metadata-enrichment"
	case ShapeRoundTrippedExport:
		return "round-tripped-export"
	default:
		return "generic-tabular"
	}
}

// idColumns are the headers that mark a row as keyed by contact ID. "tact ID"
// is a real artifact of a truncated header in the source exports.
var idColumns = []string{"Contact ID", "ContactID", "tact ID"}

// transcriptColumns are the headers whose presence means rows carry call
// content of their own and are not metadata-only.
var transcriptColumns = []string{"transcript", "Issue", "Outcome", "text", "Message"}

// Classify inspects the header row and picks the ingestion mode.
func Classify(headers []string) RowShape {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[h] = true
	}
	if set[AuditPayloadColumn] {
		return ShapeRoundTrippedExport
	}
	hasID := false
	for _, c := range idColumns {
		if set[c] {
			hasID = true
			break
		}
	}
	hasContent := false
	for _, c := range transcriptColumns {
		if set[c] {
			hasContent = true
			break
		}
	}
	if hasID && !hasContent {
		return ShapeMetadataEnrichment
	}
	return ShapeGenericTabular
}
