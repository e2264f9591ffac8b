// Package ingest orchestrates one upload batch: file-type dispatch,
// spreadsheet row classification, archive extraction and status reporting.
// Files are processed strictly one at a time so the duplicate-ID set and the
// per-file counts stay deterministic.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/transcript"
	"call-insights-go/internal/types"
)

// File is one uploaded file, already read into memory.
type File struct {
	Name string
	Data []byte
}

// FileReport is the per-file outcome surfaced to the status display.
type FileReport struct {
	File         string `json:"file"`
	Kind         string `json:"kind"`
	CallsAdded   int    `json:"calls_added"`
	Duplicates   int    `json:"duplicates"`
	RowsEnhanced int    `json:"rows_enhanced"`
	RowsNotFound int    `json:"rows_not_found"`
	Error        string `json:"error,omitempty"`
}

// BatchReport sums the outcome of one batch.
type BatchReport struct {
	FilesProcessed    int          `json:"files_processed"`
	CallsParsed       int          `json:"calls_parsed"`
	DuplicatesSkipped int          `json:"duplicates_skipped"`
	RowsEnhanced      int          `json:"rows_enhanced"`
	Failures          []string     `json:"failures"`
	Statuses          []string     `json:"statuses"`
	NoData            bool         `json:"no_data"`
	PerFile           []FileReport `json:"per_file"`
}

// Session is the explicit per-batch state: the parser with its seen-ID set,
// the calls accumulated so far, and the processed-file list. Build one per
// upload batch and discard it; nothing here is process-wide.
type Session struct {
	parser      *transcript.Parser
	Calls       []types.Call
	Files       []string
	ZipPassword string

	base   *logger.Logger
	log    *logrus.Entry
	report BatchReport
}

func NewSession(log *logger.Logger) *Session {
	return &Session{
		parser: transcript.NewParser(),
		base:   log,
		log:    log.WithField("component", "ingest"),
	}
}

// AdoptCalls seeds the session with already-loaded calls so further files
// dedupe against them. The calls are deep-copied: enrichment mutates the
// session's private copies, never records the caller may still be reading.
func (s *Session) AdoptCalls(calls []types.Call) {
	s.Calls = make([]types.Call, 0, len(calls))
	for i := range calls {
		s.Calls = append(s.Calls, calls[i].Clone())
		if id := calls[i].ContactID(); id != "" {
			s.parser.Mark(id)
		}
	}
}

func (s *Session) statusf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.report.Statuses = append(s.report.Statuses, msg)
	s.log.Info(msg)
}

func (s *Session) failf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.report.Failures = append(s.report.Failures, msg)
	s.report.Statuses = append(s.report.Statuses, msg)
	s.log.Warn(msg)
}

// ProcessFiles runs a whole batch sequentially and returns the summed report.
// A failed file is reported and skipped; the batch continues. Every log line
// for the batch carries its batch ID and file count.
func (s *Session) ProcessFiles(files []File) BatchReport {
	s.log = s.base.WithBatch(uuid.NewString(), len(files)).WithField("component", "ingest")
	s.statusf("processing %d file(s)", len(files))
	for _, f := range files {
		s.ProcessFile(f.Name, f.Data)
	}
	if len(s.Calls) == 0 {
		s.report.NoData = true
		s.failf("no calls were successfully parsed from the batch")
	} else {
		s.statusf("batch complete: %d calls from %d file(s)", len(s.Calls), s.report.FilesProcessed)
	}
	return s.report
}

// ProcessPaths is ProcessFiles over on-disk files. Read failures are
// per-file failures, not batch aborts.
func (s *Session) ProcessPaths(paths []string) BatchReport {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			s.failf("%s: %v", filepath.Base(p), err)
			continue
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return s.ProcessFiles(files)
}

// ProcessFile dispatches one file by extension. The report for the file is
// appended to the batch report and returned.
func (s *Session) ProcessFile(name string, data []byte) FileReport {
	s.statusf("processing %s", name)
	s.report.FilesProcessed++

	var rep FileReport
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		rep = s.processZip(name, data)
	case ".xlsx", ".xls":
		rep = s.processSpreadsheet(name, data, readXLSX)
	case ".csv":
		rep = s.processSpreadsheet(name, data, readCSV)
	case ".json":
		rep = s.processJSON(name, data)
	case ".txt":
		rep = s.processTranscript(name, string(data), false)
	case ".html", ".htm":
		rep = s.processTranscript(name, string(data), true)
	default:
		rep = FileReport{File: name, Kind: "unsupported", Error: "unsupported file type"}
		s.failf("%s: file type not supported, skipping", name)
		s.Files = append(s.Files, name+" (skipped - unsupported type)")
	}

	s.report.PerFile = append(s.report.PerFile, rep)
	s.report.CallsParsed += rep.CallsAdded
	s.report.DuplicatesSkipped += rep.Duplicates
	s.report.RowsEnhanced += rep.RowsEnhanced
	return rep
}

func (s *Session) processTranscript(name, content string, isHTML bool) FileReport {
	var res transcript.Result
	if isHTML {
		res = s.parser.ParseHTML(content)
	} else {
		res = s.parser.Parse(content)
	}
	s.Calls = append(s.Calls, res.Calls...)
	s.Files = append(s.Files, name+" (text)")
	if res.Duplicates > 0 {
		s.statusf("%s: skipped %d duplicate contact IDs", name, res.Duplicates)
	}
	s.statusf("%s: parsed %d calls", name, len(res.Calls))
	return FileReport{File: name, Kind: "transcript", CallsAdded: len(res.Calls), Duplicates: res.Duplicates}
}

func (s *Session) processJSON(name string, data []byte) FileReport {
	var incoming []types.Call
	if err := json.Unmarshal(data, &incoming); err != nil {
		s.failf("%s: invalid JSON file: %v", name, err)
		return FileReport{File: name, Kind: "json", Error: err.Error()}
	}
	added, duplicates := 0, 0
	for _, call := range incoming {
		id := call.ContactID()
		if id != "" && s.parser.Seen(id) {
			duplicates++
			continue
		}
		if id != "" {
			s.parser.Mark(id)
		}
		if call.Meta == nil {
			call.Meta = map[string]string{}
		}
		s.Calls = append(s.Calls, call)
		added++
	}
	s.Files = append(s.Files, name+" (json)")
	s.statusf("%s: imported %d calls (%d duplicates skipped)", name, added, duplicates)
	return FileReport{File: name, Kind: "json", CallsAdded: added, Duplicates: duplicates}
}

type tableReader func(data []byte) ([]string, []map[string]string, error)

func (s *Session) processSpreadsheet(name string, data []byte, read tableReader) FileReport {
	headers, rows, err := read(data)
	if err != nil {
		s.failf("%s: %v", name, err)
		return FileReport{File: name, Kind: "spreadsheet", Error: err.Error()}
	}
	if len(rows) == 0 {
		s.failf("%s: no valid data found in spreadsheet", name)
		return FileReport{File: name, Kind: "spreadsheet", Error: "no data rows"}
	}

	shape := Classify(headers)
	s.Files = append(s.Files, name+" (spreadsheet)")

	switch shape {
	case ShapeMetadataEnrichment:
		if len(s.Calls) == 0 {
			s.failf("%s: no existing calls to enhance; load transcript data first", name)
			return FileReport{File: name, Kind: shape.String(), Error: "no calls loaded"}
		}
		enhanced, notFound := enhanceCalls(s.Calls, headers, rows)
		s.statusf("%s: enhanced %d calls with metadata, %d IDs not found", name, enhanced, notFound)
		return FileReport{File: name, Kind: shape.String(), RowsEnhanced: enhanced, RowsNotFound: notFound}

	case ShapeRoundTrippedExport:
		calls, duplicates := s.importAuditRows(rows)
		s.Calls = append(s.Calls, calls...)
		s.statusf("%s: restored %d calls from export rows (%d duplicates skipped)", name, len(calls), duplicates)
		return FileReport{File: name, Kind: shape.String(), CallsAdded: len(calls), Duplicates: duplicates}

	default:
		calls, duplicates := s.convertGenericRows(headers, rows, name)
		s.Calls = append(s.Calls, calls...)
		s.statusf("%s: converted %d rows (%d duplicates skipped)", name, len(calls), duplicates)
		return FileReport{File: name, Kind: shape.String(), CallsAdded: len(calls), Duplicates: duplicates}
	}
}
