// Package report renders a stored upload as a downloadable document.
//
// Reports show the summary persisted with the upload; nothing is
// recomputed from the rows. The same upload always renders to the same
// bytes.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/equipview/internal/common"
	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/server/models"
)

const (
	title   = "Equipment Report"
	absent  = "-"
	timeFmt = "2006-01-02 15:04:05.000000 UTC"
)

// Document is the format-independent content of a report.
type Document struct {
	Title        string
	UploadID     string
	Filename     string
	UploadedAt   time.Time
	Figures      []Figure
	Distribution []equipment.DistributionEntry
	Rows         []RowLine
}

// Figure is one labelled summary value.
type Figure struct {
	Label string
	Value string
}

// RowLine is one table line, with absent values already rendered.
type RowLine struct {
	Position    int
	Name        string
	Type        string
	Flowrate    string
	Pressure    string
	Temperature string
	Complete    bool
	Missing     []string
}

// Status is the text flag shown for the row.
func (r RowLine) Status() string {
	if r.Complete {
		return "complete"
	}
	return "incomplete: " + strings.Join(r.Missing, ", ")
}

// Build assembles the document for u.
func Build(u *models.Upload) Document {
	s := u.Summary
	d := Document{
		Title:      title,
		UploadID:   u.ID,
		Filename:   u.Filename,
		UploadedAt: u.UploadedAt.UTC(),
		Figures: []Figure{
			{"Rows in file", strconv.Itoa(s.RowCount)},
			{"Complete rows (total count)", strconv.Itoa(s.TotalCount)},
			{"Incomplete rows", strconv.Itoa(s.IncompleteCount)},
			{"Average flowrate", average(s.Averages.Flowrate)},
			{"Average pressure", average(s.Averages.Pressure)},
			{"Average temperature", average(s.Averages.Temperature)},
		},
		Distribution: s.SortedDistribution(),
	}

	for _, r := range u.Rows {
		d.Rows = append(d.Rows, RowLine{
			Position:    r.Position,
			Name:        equipment.Text(r.Name, absent),
			Type:        equipment.Text(r.Type, absent),
			Flowrate:    equipment.Number(r.Flowrate, absent),
			Pressure:    equipment.Number(r.Pressure, absent),
			Temperature: equipment.Number(r.Temperature, absent),
			Complete:    r.Complete(),
			Missing:     r.MissingFields(),
		})
	}
	return d
}

func average(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *f)
}

// Format selects the output encoding.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// ParseFormat maps a query value to a Format. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatText, "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown report format %q", common.ErrInvalidInput, s)
}

func (f Format) ContentType() string {
	if f == FormatText {
		return "text/plain; charset=utf-8"
	}
	return "application/pdf"
}

// Filename is the download name suggested for the report of upload id.
func Filename(id string, f Format) string {
	return fmt.Sprintf("report_%s.%s", id, f)
}
