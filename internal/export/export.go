// Package export writes the audit-template workbook: one row per call with
// human-readable summary columns plus a raw JSON payload cell that the
// ingestor can restore a full call from.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-insights-go/internal/ingest"
	"call-insights-go/internal/types"
)

const sheetName = "Audit"

// headers: readable columns first, the machine payload last. The payload
// column name is load-bearing; the spreadsheet classifier keys on it.
var headers = []string{
	"Contact ID",
	"Agent",
	"Timestamp",
	"Duration",
	"Channel",
	"Flags",
	"Positive Flags",
	"Issue",
	"Outcome",
	"Summary",
	ingest.AuditPayloadColumn,
}

// AuditTemplate renders calls into an XLSX workbook and returns the encoded
// bytes. Calls are written in the order given.
func AuditTemplate(calls []types.Call) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, call := range calls {
		payload, err := ingest.EncodeAuditPayload(call)
		if err != nil {
			return nil, fmt.Errorf("encode call %s: %w", call.ContactID(), err)
		}
		row := []interface{}{
			call.ContactID(),
			call.AgentName(),
			call.Meta[types.MetaInitiation],
			call.Meta[types.MetaDuration],
			call.Meta[types.MetaChannel],
			strings.Join(call.Flags, "; "),
			strings.Join(call.PositiveFlags, "; "),
			call.Issue,
			call.Outcome,
			call.Summary,
			string(payload),
		}
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
