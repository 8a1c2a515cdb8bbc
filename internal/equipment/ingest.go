package equipment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedCSV is returned when the reader fails on a line it cannot
// attribute to a single cell.
var ErrMalformedCSV = errors.New("malformed csv")

// SchemaError lists required columns missing from the header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s. Required: %s",
		strings.Join(e.Missing, ", "), strings.Join(RequiredColumns(), ", "))
}

type column int

const (
	colName column = iota
	colType
	colFlowrate
	colPressure
	colTemperature
	numColumns
)

var columnHeaders = [numColumns]string{
	colName:        "Equipment Name",
	colType:        "Type",
	colFlowrate:    "Flowrate",
	colPressure:    "Pressure",
	colTemperature: "Temperature",
}

var headerAliases = map[string]column{
	"equipment name": colName,
	"name":           colName,
	"type":           colType,
	"equipment type": colType,
	"flowrate":       colFlowrate,
	"flow rate":      colFlowrate,
	"pressure":       colPressure,
	"temperature":    colTemperature,
}

const bom = "\ufeff"

// RequiredColumns returns the canonical header names in column order.
func RequiredColumns() []string {
	out := make([]string, numColumns)
	copy(out, columnHeaders[:])
	return out
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, bom)
	h = strings.ReplaceAll(strings.ToLower(h), "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

// Ingest reads a CSV document and classifies every data line.
//
// The header is matched against the required columns first; if any is
// missing a *SchemaError is returned and no rows are produced. Cell-level
// problems never fail ingestion, they only make the affected row incomplete.
func Ingest(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Missing: RequiredColumns()}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}

	idx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		cell := func(c column) string {
			if i := idx[c]; i < len(rec) {
				return rec[i]
			}
			return ""
		}

		rows = append(rows, Row{
			Position:    len(rows) + 1,
			Name:        ParseText(cell(colName)),
			Type:        ParseText(cell(colType)),
			Flowrate:    ParseNumber(cell(colFlowrate)),
			Pressure:    ParseNumber(cell(colPressure)),
			Temperature: ParseNumber(cell(colTemperature)),
		})
	}

	return rows, nil
}

func resolveColumns(header []string) ([numColumns]int, error) {
	var idx [numColumns]int
	var seen [numColumns]bool

	for i, h := range header {
		c, ok := headerAliases[normalizeHeader(h)]
		if !ok || seen[c] {
			continue
		}
		idx[c] = i
		seen[c] = true
	}

	var missing []string
	for c := column(0); c < numColumns; c++ {
		if !seen[c] {
			missing = append(missing, columnHeaders[c])
		}
	}
	if len(missing) > 0 {
		return idx, &SchemaError{Missing: missing}
	}
	return idx, nil
}
