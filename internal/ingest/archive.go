package ingest

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/yeka/zip"
)

// extractableExts are the entry types pulled out of an archive. Nested
// archives are not recursed into.
var extractableExts = map[string]bool{
	".txt": true, ".html": true, ".htm": true, ".json": true,
	".csv": true, ".xlsx": true, ".xls": true,
}

// processZip extracts a password-optional archive and feeds each contained
// file through the same sequential pipeline. A corrupt archive or a wrong
// password is a file-level failure; the batch continues.
func (s *Session) processZip(name string, data []byte) FileReport {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.failf("%s: cannot read archive: %v", name, err)
		return FileReport{File: name, Kind: "archive", Error: err.Error()}
	}

	rep := FileReport{File: name, Kind: "archive"}
	extracted := 0
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if !extractableExts[strings.ToLower(filepath.Ext(entry.Name))] {
			continue
		}
		if entry.IsEncrypted() {
			entry.SetPassword(s.ZipPassword)
		}
		rc, err := entry.Open()
		if err != nil {
			s.failf("%s -> %s: %v (check archive password)", name, entry.Name, err)
			rep.Error = "one or more entries failed"
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			s.failf("%s -> %s: %v (check archive password)", name, entry.Name, err)
			rep.Error = "one or more entries failed"
			continue
		}

		extracted++
		s.Files = append(s.Files, name+" -> "+entry.Name)
		sub := s.ProcessFile(entry.Name, content)
		rep.CallsAdded += sub.CallsAdded
		rep.Duplicates += sub.Duplicates
		rep.RowsEnhanced += sub.RowsEnhanced
	}

	if extracted == 0 && rep.Error == "" {
		s.failf("%s: no supported files found in archive", name)
		rep.Error = "no supported files in archive"
	}
	return rep
}
