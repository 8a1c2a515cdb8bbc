package equipment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field names used in warnings and missing-field listings.
const (
	FieldName        = "name"
	FieldType        = "type"
	FieldFlowrate    = "flowrate"
	FieldPressure    = "pressure"
	FieldTemperature = "temperature"
)

const nanToken = "nan"

// Row is one data line of an uploaded file. A nil field is absent.
//
// Rows are values: nothing in the system modifies a Row after Ingest (or a
// repository) has built it, so Complete always answers the same way.
type Row struct {
	Position    int      `json:"position"`
	Name        *string  `json:"equipment_name"`
	Type        *string  `json:"equipment_type"`
	Flowrate    *float64 `json:"flowrate"`
	Pressure    *float64 `json:"pressure"`
	Temperature *float64 `json:"temperature"`
}

// IsAbsent reports whether a raw cell value counts as missing.
func IsAbsent(raw string) bool {
	v := strings.TrimSpace(raw)
	return v == "" || strings.EqualFold(v, nanToken)
}

// CleanText makes a cell storable as text on every backend: NUL bytes are
// dropped and invalid UTF-8 sequences become U+FFFD.
func CleanText(raw string) string {
	if strings.IndexByte(raw, 0) >= 0 {
		raw = strings.ReplaceAll(raw, "\x00", "")
	}
	return strings.ToValidUTF8(raw, "\uFFFD")
}

// ParseText returns the trimmed, cleaned cell value, or nil when it is absent.
func ParseText(raw string) *string {
	v := CleanText(raw)
	if IsAbsent(v) {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

// ParseNumber returns the numeric cell value, or nil when it is absent or
// does not parse as a finite number.
func ParseNumber(raw string) *float64 {
	if IsAbsent(raw) {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Complete reports whether every field is present.
func (r Row) Complete() bool {
	return len(r.MissingFields()) == 0
}

// MissingFields lists absent fields in column order.
func (r Row) MissingFields() []string {
	var missing []string
	if r.Name == nil || IsAbsent(*r.Name) {
		missing = append(missing, FieldName)
	}
	if r.Type == nil || IsAbsent(*r.Type) {
		missing = append(missing, FieldType)
	}
	if !finite(r.Flowrate) {
		missing = append(missing, FieldFlowrate)
	}
	if !finite(r.Pressure) {
		missing = append(missing, FieldPressure)
	}
	if !finite(r.Temperature) {
		missing = append(missing, FieldTemperature)
	}
	return missing
}

func finite(f *float64) bool {
	return f != nil && !math.IsNaN(*f) && !math.IsInf(*f, 0)
}

// MarshalJSON adds the derived "complete" flag so consumers highlighting rows
// do not need their own predicate.
func (r Row) MarshalJSON() ([]byte, error) {
	type plain Row
	return json.Marshal(struct {
		plain
		Complete bool `json:"complete"`
	}{plain: plain(r), Complete: r.Complete()})
}

// Text returns s or def when s is absent.
func Text(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// Number formats f without rounding, or returns def when f is absent.
func Number(f *float64, def string) string {
	if f == nil {
		return def
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
