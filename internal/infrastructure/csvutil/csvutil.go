// Package csvutil reads and writes the CSV dialects exchanged with marketplaces,
// accounting and the shop: semicolon separated files, latin1 encoded uploads and
// writers that quote every field or every non-numeric field.
package csvutil

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// QuoteMode controls which fields a Writer quotes
type QuoteMode int

const (
	// QuoteMinimal quotes only fields that need it
	QuoteMinimal QuoteMode = iota
	// QuoteAll quotes every field
	QuoteAll
	// QuoteNonNumeric quotes every field that is not a plain number
	QuoteNonNumeric
)

// NewReader returns a csv reader with the given separator that tolerates ragged rows
func NewReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// NewLatin1Reader decodes ISO-8859-1 input before parsing
func NewLatin1Reader(r io.Reader, comma rune) *csv.Reader {
	return NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), comma)
}

// ReadAll reads every record of r
func ReadAll(r io.Reader, comma rune) ([][]string, error) {
	return NewReader(r, comma).ReadAll()
}

// Writer writes CSV records with a fixed quoting policy
type Writer struct {
	w     *bufio.Writer
	comma rune
	mode  QuoteMode
	raw   map[int]bool
	err   error
}

// NewWriter creates a writer
func NewWriter(w io.Writer, comma rune, mode QuoteMode) *Writer {
	return &Writer{w: bufio.NewWriter(w), comma: comma, mode: mode}
}

// WithRawColumns leaves the given column indexes unquoted regardless of mode.
func (w *Writer) WithRawColumns(indexes ...int) *Writer {
	if w.raw == nil {
		w.raw = make(map[int]bool, len(indexes))
	}
	for _, i := range indexes {
		w.raw[i] = true
	}
	return w
}

// Write writes one record terminated by \r\n
func (w *Writer) Write(record []string) error {
	if w.err != nil {
		return w.err
	}
	for i, field := range record {
		if i > 0 {
			if _, w.err = w.w.WriteRune(w.comma); w.err != nil {
				return w.err
			}
		}
		if !w.raw[i] && w.quote(field) {
			_, w.err = w.w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`)
		} else {
			_, w.err = w.w.WriteString(field)
		}
		if w.err != nil {
			return w.err
		}
	}
	_, w.err = w.w.WriteString("\r\n")
	return w.err
}

// WriteAll writes all records and flushes
func (w *Writer) WriteAll(records [][]string) error {
	for _, r := range records {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush flushes buffered output
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

func (w *Writer) quote(field string) bool {
	switch w.mode {
	case QuoteAll:
		return true
	case QuoteNonNumeric:
		return !isNumeric(field)
	default:
		return field != "" && (strings.ContainsRune(field, w.comma) || strings.ContainsAny(field, "\"\r\n") || field[0] == ' ')
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '-' && i == 0 && len(s) > 1:
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
