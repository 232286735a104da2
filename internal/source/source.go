package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gyeh/claimscore/internal/model"
	"github.com/gyeh/claimscore/internal/normalize"
)

// SourceNotFoundError reports a missing or unreadable input file.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %s not readable: %v", e.Path, e.Err)
}

func (e *SourceNotFoundError) Unwrap() error {
	return e.Err
}

// Table is a fully materialized tabular file: one header row plus data rows,
// every cell rendered as a string.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Format identifies the tabular encoding of a source file.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// DetectFormat picks the reader from the file extension; anything that is not
// .parquet is treated as CSV.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Stat checks that path exists and is a regular readable file.
func Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &SourceNotFoundError{Path: path, Err: fmt.Errorf("is a directory")}
	}
	return info, nil
}

// ReadTable loads the whole file at path into memory.
func ReadTable(path string) (*Table, error) {
	if _, err := Stat(path); err != nil {
		return nil, err
	}
	var (
		t   *Table
		err error
	)
	switch DetectFormat(path) {
	case FormatParquet:
		t, err = ReadParquet(path)
	default:
		t, err = ReadCSV(path)
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, &SourceNotFoundError{Path: path, Err: err}
	}
	return t, err
}

// Claims normalizes the table header and coerces every row into a ClaimRecord.
// The only possible error is a *normalize.SchemaError.
func (t *Table) Claims() ([]model.ClaimRecord, error) {
	cols, err := normalize.NormalizeHeaders(t.Headers)
	if err != nil {
		return nil, err
	}
	records := make([]model.ClaimRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		records = append(records, normalize.ToClaimRecord(row, cols, int64(i+1)))
	}
	return records, nil
}

// ReadClaims reads the file at path and returns its coerced claim records.
func ReadClaims(path string) ([]model.ClaimRecord, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return t.Claims()
}
