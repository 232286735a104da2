package source

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

const readBatchSize = 1024

// ReadParquet reads a flat Parquet file, rendering every leaf value as a
// string so it flows through the same coercion as CSV cells. DATE and
// TIMESTAMP logical columns are rendered as ISO dates.
func ReadParquet(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := pf.Schema()
	paths := schema.Columns()
	t := &Table{Headers: make([]string, len(paths))}
	formatters := make([]func(parquet.Value) string, len(paths))
	for i, path := range paths {
		t.Headers[i] = strings.Join(path, ".")
		formatters[i] = formatValue
		if leaf, ok := schema.Lookup(path...); ok {
			formatters[i] = formatterFor(leaf.Node)
		}
	}

	buf := make([]parquet.Row, readBatchSize)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, buf, t, formatters); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, t *Table, formatters []func(parquet.Value) string) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, readErr := rows.ReadRows(buf)
		for i := 0; i < n; i++ {
			cells := make([]string, len(t.Headers))
			seen := make([]bool, len(t.Headers))
			for _, v := range buf[i] {
				col := v.Column()
				if col < 0 || col >= len(cells) || seen[col] {
					continue
				}
				seen[col] = true
				if !v.IsNull() {
					cells[col] = formatters[col](v)
				}
			}
			t.Rows = append(t.Rows, cells)
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read parquet rows at row %d: %w", len(t.Rows), readErr)
		}
	}
}

func formatterFor(node parquet.Node) func(parquet.Value) string {
	lt := node.Type().LogicalType()
	if lt == nil {
		return formatValue
	}
	switch {
	case lt.Date != nil:
		return func(v parquet.Value) string {
			return time.Unix(int64(v.Int32())*86400, 0).UTC().Format(time.DateOnly)
		}
	case lt.Timestamp != nil:
		unit := lt.Timestamp.Unit
		return func(v parquet.Value) string {
			n := v.Int64()
			var ts time.Time
			switch {
			case unit.Millis != nil:
				ts = time.UnixMilli(n)
			case unit.Nanos != nil:
				ts = time.Unix(0, n)
			default:
				ts = time.UnixMicro(n)
			}
			return ts.UTC().Format(time.DateOnly)
		}
	}
	return formatValue
}

func formatValue(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return ""
	}
}
