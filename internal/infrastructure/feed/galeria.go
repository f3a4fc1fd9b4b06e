package feed

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/m13/backoffice/internal/domain/pricing"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
)

// GaleriaFactor is the fixed markup applied to Galeria prices
var GaleriaFactor = decimal.RequireFromString("1.2")

// GaleriaColumns is the column order of the Galeria feed
var GaleriaColumns = []string{
	"GTIN", "Bestand", "Lieferzeit", "Einkaufspreis", "Verkaufspreis", "Aktionspreis", "Gültigkeit bis",
}

const galeriaPriceColumn = 4

// galeriaNumeric marks Bestand and the three price columns
var galeriaNumeric = map[int]bool{1: true, 3: true, 4: true, 5: true}

// GaleriaSheet is the sheet name of the XLSX copy
const GaleriaSheet = "Galeria"

// ParseGaleria reads the `;` separated Galeria feed. The header row is kept as first record.
func ParseGaleria(raw []byte) ([][]string, error) {
	records, err := csvutil.ReadAll(bytes.NewReader(raw), ';')
	if err != nil {
		return nil, fmt.Errorf("feed: parse galeria: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrFeedEmpty
	}
	return records, nil
}

// TransformGaleria replaces the sell price of every data record with the ladder price for factor.
// It returns the number of transformed records.
func TransformGaleria(records [][]string, factor decimal.Decimal) (int, error) {
	if len(records) < 2 {
		return 0, ErrFeedEmpty
	}
	n := 0
	for i, rec := range records[1:] {
		if len(rec) <= galeriaPriceColumn {
			return n, fmt.Errorf("%w: line %d has %d columns", ErrInvalidPrice, i+2, len(rec))
		}
		base, err := ParsePrice(rec[galeriaPriceColumn])
		if err != nil {
			return n, fmt.Errorf("line %d: %w", i+2, err)
		}
		price, err := pricing.Beautify(base, factor)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", i+2, err)
		}
		rec[galeriaPriceColumn] = price.StringFixed(2)
		n++
	}
	return n, nil
}

// WriteGaleriaCSV writes the records with every field quoted
func WriteGaleriaCSV(w io.Writer, records [][]string) error {
	return csvutil.NewWriter(w, ';', csvutil.QuoteAll).WriteAll(records)
}

// WriteGaleriaXLSX writes the records as a single sheet workbook. Quantity and price
// columns are written as numbers when they parse.
func WriteGaleriaXLSX(w io.Writer, records [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", GaleriaSheet); err != nil {
		return fmt.Errorf("feed: xlsx sheet: %w", err)
	}
	for i, rec := range records {
		cells := make([]any, len(rec))
		for j, v := range rec {
			cells[j] = v
			if i == 0 || !galeriaNumeric[j] {
				continue
			}
			if num, err := strconv.ParseFloat(v, 64); err == nil {
				cells[j] = num
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(GaleriaSheet, cell, &cells); err != nil {
			return fmt.Errorf("feed: xlsx row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("feed: xlsx write: %w", err)
	}
	return nil
}
