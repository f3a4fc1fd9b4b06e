package csvutil

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input holds no data
	ErrEmptyFile = errors.New("csvutil: empty file")
	// ErrMissingHeader is returned when the header row is missing
	ErrMissingHeader = errors.New("csvutil: missing header row")
	// ErrMissingColumns is returned when required header columns are absent
	ErrMissingColumns = errors.New("csvutil: missing required columns")
)

// Row is a data row mapped by header name
type Row struct {
	// Line is the 1-based line number, header is line 1
	Line int
	// Data maps header to trimmed value
	Data map[string]string
	// Fields are the raw fields
	Fields []string
}

// Get returns the value of the column or ""
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// GetAny returns the first non-empty value of the given columns
func (r *Row) GetAny(headers ...string) string {
	for _, h := range headers {
		if v := r.Data[h]; v != "" {
			return v
		}
	}
	return ""
}

// IsEmpty returns true if every field is empty
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// HeaderReader reads a CSV file whose first row names the columns
type HeaderReader struct {
	reader  *csv.Reader
	headers []string
	index   map[string]int
	line    int
}

// NewHeaderReader strips a UTF-8 BOM and reads the header row
func NewHeaderReader(r io.Reader, comma rune) (*HeaderReader, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	if _, err := br.Peek(1); err == io.EOF {
		return nil, ErrEmptyFile
	}

	hr := &HeaderReader{reader: NewReader(br, comma), index: make(map[string]int)}
	hr.reader.TrimLeadingSpace = true

	record, err := hr.reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csvutil: read header: %w", err)
	}
	hr.headers = make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		hr.headers[i] = h
		hr.index[h] = i
	}
	hr.line = 1
	return hr, nil
}

// Headers returns the header names
func (h *HeaderReader) Headers() []string {
	return h.headers
}

// HasHeader checks if a column exists
func (h *HeaderReader) HasHeader(name string) bool {
	_, ok := h.index[name]
	return ok
}

// Require returns ErrMissingColumns naming every absent column
func (h *HeaderReader) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !h.HasHeader(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// Read returns the next row or io.EOF
func (h *HeaderReader) Read() (*Row, error) {
	record, err := h.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	h.line++
	if err != nil {
		return nil, fmt.Errorf("csvutil: line %d: %w", h.line, err)
	}
	row := &Row{Line: h.line, Data: make(map[string]string, len(h.headers)), Fields: record}
	for i, header := range h.headers {
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAll returns every non-empty remaining row
func (h *HeaderReader) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := h.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}
