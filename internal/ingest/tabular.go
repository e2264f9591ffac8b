package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX loads the first sheet of a workbook into header + row maps.
// Empty cells come back as empty strings, matching the CSV path.
func readXLSX(data []byte) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets in workbook")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return tableFromRows(rows)
}

// readCSV parses header-row CSV. Ragged rows are tolerated; short rows pad
// with empty strings.
func readCSV(data []byte) ([]string, []map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	return tableFromRows(records)
}

func tableFromRows(rows [][]string) ([]string, []map[string]string, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty table")
	}
	headers := rows[0]
	var out []map[string]string
	for _, r := range rows[1:] {
		empty := true
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			v := ""
			if i < len(r) {
				v = r[i]
			}
			if v != "" {
				empty = false
			}
			row[h] = v
		}
		if !empty {
			out = append(out, row)
		}
	}
	return headers, out, nil
}
