package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVOptions tunes the encoding for spreadsheet locales.
type CSVOptions struct {
	Comma rune
	// BOM prefixes a UTF-8 byte order mark so spreadsheet tools detect accents.
	BOM bool
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct {
	opts CSVOptions
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter(opts CSVOptions) *CSVExporter {
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &CSVExporter{opts: opts}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.opts.BOM {
		buf.WriteString("\ufeff")
	}
	writer := csv.NewWriter(buf)
	writer.Comma = e.opts.Comma
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
