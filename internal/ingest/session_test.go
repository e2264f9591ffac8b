package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	lrtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

func newTestSession() *Session {
	return NewSession(logger.New())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ShapeRoundTrippedExport, Classify([]string{"Contact ID", AuditPayloadColumn}))
	assert.Equal(t, ShapeMetadataEnrichment, Classify([]string{"Contact ID", "Queue", "Channel"}))
	assert.Equal(t, ShapeMetadataEnrichment, Classify([]string{"tact ID", "Queue"}))
	assert.Equal(t, ShapeGenericTabular, Classify([]string{"Contact ID", "transcript"}))
	assert.Equal(t, ShapeGenericTabular, Classify([]string{"caller", "notes"}))
	assert.Equal(t, ShapeGenericTabular, Classify(nil))
}

func TestProcessCSVGenericRows(t *testing.T) {
	csvData := strings.Join([]string{
		"Contact ID,Agent Name,Timestamp,text,Region",
		"id-001,Amy Pond,2024-03-05 10:00:00,customer says thank you the issue is resolved,EU",
		"id-002,Ben King,2024-03-05 11:00:00,very frustrated wants a refund,US",
	}, "\n")

	s := newTestSession()
	rep := s.ProcessFile("calls.csv", []byte(csvData))
	assert.Equal(t, 2, rep.CallsAdded)
	require.Len(t, s.Calls, 2)

	first := s.Calls[0]
	assert.Equal(t, "id-001", first.ContactID())
	assert.Equal(t, "Amy Pond", first.AgentName())
	// Unmatched columns fold into meta.
	assert.Equal(t, "EU", first.Meta["Region"])
	assert.Equal(t, "calls.csv", first.Meta[types.MetaSource])
	assert.Contains(t, first.PositiveFlags, "thank you")
	assert.Contains(t, first.PositiveFlags, "resolved")

	second := s.Calls[1]
	assert.Contains(t, second.Flags, "frustrated")
	assert.Contains(t, second.Flags, "refund")
	assert.Negative(t, second.PositiveScore)
}

func TestProcessCSVDuplicateIDs(t *testing.T) {
	csvData := strings.Join([]string{
		"Contact ID,Agent Name,text",
		"id-001,Amy,hello",
		"id-001,Amy,hello again",
	}, "\n")

	s := newTestSession()
	rep := s.ProcessFile("calls.csv", []byte(csvData))
	assert.Equal(t, 1, rep.CallsAdded)
	assert.Equal(t, 1, rep.Duplicates)
}

func TestGenericRowsSyntheticIDs(t *testing.T) {
	csvData := strings.Join([]string{
		"Agent Name,text",
		"Amy,first note",
		"Amy,second note",
	}, "\n")

	s := newTestSession()
	rep := s.ProcessFile("notes.csv", []byte(csvData))
	// Rows without an ID get generated ones and never collide.
	assert.Equal(t, 2, rep.CallsAdded)
	assert.Zero(t, rep.Duplicates)
	assert.True(t, strings.HasPrefix(s.Calls[0].ContactID(), "generic-"))
	assert.NotEqual(t, s.Calls[0].ContactID(), s.Calls[1].ContactID())
}

func TestExplicitFlagColumnsWinOverScan(t *testing.T) {
	headers := []string{"Contact ID", "text", "flags", "positiveFlags"}
	rows := []map[string]string{{
		"Contact ID":    "id-009",
		"text":          "customer was frustrated about the bill",
		"flags":         "late fee; dispute charge",
		"positiveFlags": "",
	}}

	s := newTestSession()
	calls, dups := s.convertGenericRows(headers, rows, "export.csv")
	require.Len(t, calls, 1)
	assert.Zero(t, dups)
	assert.Equal(t, []string{"late fee", "dispute charge"}, calls[0].Flags)
	assert.Empty(t, calls[0].PositiveFlags)
}

func TestMetadataEnrichmentFirstWriteWins(t *testing.T) {
	s := newTestSession()
	s.Calls = []types.Call{{
		Meta: map[string]string{
			types.MetaContactID: "id-100",
			types.MetaQueue:     "N/A",
			types.MetaChannel:   "Voice",
		},
	}}
	s.parser.Mark("id-100")

	csvData := strings.Join([]string{
		"Contact ID,Queue,Channel",
		"id-100,Premium,Chat",
		"id-404,Basic,Voice",
	}, "\n")
	rep := s.ProcessFile("meta.csv", []byte(csvData))
	assert.Equal(t, 1, rep.RowsEnhanced)
	assert.Equal(t, 1, rep.RowsNotFound)

	// Placeholder filled, real value preserved.
	assert.Equal(t, "Premium", s.Calls[0].Meta[types.MetaQueue])
	assert.Equal(t, "Voice", s.Calls[0].Meta[types.MetaChannel])
}

func TestMetadataEnrichmentRequiresLoadedCalls(t *testing.T) {
	s := newTestSession()
	csvData := "Contact ID,Queue\nid-1,Premium\n"
	rep := s.ProcessFile("meta.csv", []byte(csvData))
	assert.Zero(t, rep.CallsAdded)
	assert.NotEmpty(t, rep.Error)
}

func TestNormalizeMetaKey(t *testing.T) {
	assert.Equal(t, types.MetaContactID, normalizeMetaKey("tact ID"))
	assert.Equal(t, types.MetaCustomer, normalizeMetaKey("Customer phone number"))
	assert.Equal(t, "Queue", normalizeMetaKey("Queue"))
}

func TestAuditPayloadRoundTrip(t *testing.T) {
	call := types.Call{
		Meta: map[string]string{
			types.MetaContactID:  "id-777",
			types.MetaAgentName:  "Amy Pond",
			types.MetaInitiation: "2024-03-05 10:00:00",
			types.MetaDuration:   "00:02:00",
		},
		Transcript: []types.Utterance{{
			Speaker: "Customer", Timestamp: "00:01", Text: "thanks, resolved",
			Flags: []string{}, PositiveFlags: []string{"thanks", "resolved"},
		}},
		Flags:         []string{},
		PositiveFlags: []string{"thanks", "resolved"},
		Issue:         "Billing question",
		Outcome:       "Resolved",
		Summary:       "Quick fix",
		PositiveScore: 2,
	}

	payload, err := EncodeAuditPayload(call)
	require.NoError(t, err)

	s := newTestSession()
	rows := []map[string]string{{AuditPayloadColumn: string(payload)}}
	restored, dups := s.importAuditRows(rows)
	require.Len(t, restored, 1)
	assert.Zero(t, dups)
	assert.Equal(t, call.Meta, restored[0].Meta)
	assert.Equal(t, call.Flags, restored[0].Flags)
	assert.Equal(t, call.PositiveFlags, restored[0].PositiveFlags)
	assert.Equal(t, call.Issue, restored[0].Issue)
	assert.Equal(t, call.PositiveScore, restored[0].PositiveScore)

	// Re-importing the same payload through the same session is a duplicate.
	again, dups := s.importAuditRows(rows)
	assert.Empty(t, again)
	assert.Equal(t, 1, dups)
}

func TestAuditRowsSkipUnreadablePayload(t *testing.T) {
	s := newTestSession()
	rows := []map[string]string{
		{AuditPayloadColumn: "{not json"},
		{AuditPayloadColumn: ""},
	}
	calls, dups := s.importAuditRows(rows)
	assert.Empty(t, calls)
	assert.Zero(t, dups)
}

func TestProcessJSONDuplicateSkip(t *testing.T) {
	calls := []types.Call{
		{Meta: map[string]string{types.MetaContactID: "id-1", types.MetaAgentName: "Amy"}},
		{Meta: map[string]string{types.MetaContactID: "id-1", types.MetaAgentName: "Amy"}},
		{Meta: map[string]string{types.MetaContactID: "id-2", types.MetaAgentName: "Ben"}},
	}
	data, err := json.Marshal(calls)
	require.NoError(t, err)

	s := newTestSession()
	rep := s.ProcessFile("calls.json", data)
	assert.Equal(t, 2, rep.CallsAdded)
	assert.Equal(t, 1, rep.Duplicates)
}

func TestAdoptCallsDedupes(t *testing.T) {
	s := newTestSession()
	s.AdoptCalls([]types.Call{{Meta: map[string]string{types.MetaContactID: "id-1"}}})

	data, err := json.Marshal([]types.Call{
		{Meta: map[string]string{types.MetaContactID: "id-1"}},
		{Meta: map[string]string{types.MetaContactID: "id-2"}},
	})
	require.NoError(t, err)

	rep := s.ProcessFile("more.json", data)
	assert.Equal(t, 1, rep.CallsAdded)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Len(t, s.Calls, 2)
}

func TestAdoptCallsCopiesRecords(t *testing.T) {
	original := []types.Call{{
		Meta: map[string]string{
			types.MetaContactID: "id-100",
			types.MetaQueue:     "N/A",
		},
		Flags: []string{"bill"},
	}}

	s := newTestSession()
	s.AdoptCalls(original)

	csvData := "Contact ID,Queue\nid-100,Premium\n"
	rep := s.ProcessFile("meta.csv", []byte(csvData))
	assert.Equal(t, 1, rep.RowsEnhanced)

	// Enrichment lands on the session's copy only.
	assert.Equal(t, "Premium", s.Calls[0].Meta[types.MetaQueue])
	assert.Equal(t, "N/A", original[0].Meta[types.MetaQueue])

	s.Calls[0].Flags[0] = "changed"
	assert.Equal(t, "bill", original[0].Flags[0])
}

func TestProcessFilesLogsBatchFields(t *testing.T) {
	lg := logger.New()
	hook := lrtest.NewLocal(lg.Entry.Logger)

	s := NewSession(lg)
	s.ProcessFiles([]File{{Name: "a.txt", Data: []byte("no contact ids here")}})

	found := false
	for _, e := range hook.AllEntries() {
		if _, ok := e.Data["batch_id"]; !ok {
			continue
		}
		assert.Equal(t, 1, e.Data["files"])
		found = true
	}
	assert.True(t, found, "expected batch-tagged log entries")
}

func TestProcessFileUnsupportedType(t *testing.T) {
	s := newTestSession()
	rep := s.ProcessFile("audio.wav", []byte{0x00})
	assert.Equal(t, "unsupported", rep.Kind)
	assert.NotEmpty(t, rep.Error)
}

func TestProcessFilesEmptyBatch(t *testing.T) {
	s := newTestSession()
	report := s.ProcessFiles(nil)
	assert.True(t, report.NoData)
	assert.NotEmpty(t, report.Failures)
}

func TestTableFromRows(t *testing.T) {
	headers, rows, err := tableFromRows([][]string{
		{"a", "b", "c"},
		{"1", "2"},   // short row pads
		{"", "", ""}, // all-empty row dropped
		{"x", "y", "z"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0]["c"])
	assert.Equal(t, "z", rows[1]["c"])

	_, _, err = tableFromRows(nil)
	assert.Error(t, err)
}
