package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV reads a header row plus data rows. A UTF-8 BOM is skipped, quotes
// are parsed leniently and ragged rows are allowed; blank lines are dropped.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) (*Table, error) {
	br := bufio.NewReaderSize(r, 256*1024)

	// Skip UTF-8 BOM if present
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	headers, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	t := &Table{Headers: headers}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(t.Rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
