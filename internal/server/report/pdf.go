package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
)

const chartImage = "distribution"

var rowColumns = []struct {
	header string
	width  float64
}{
	{"#", 10},
	{"Equipment Name", 42},
	{"Type", 28},
	{"Flowrate", 22},
	{"Pressure", 22},
	{"Temperature", 24},
	{"Status", 42},
}

// WritePDF renders d as a PDF. Creation and modification dates are the
// upload time so the output does not depend on when it is rendered.
func WritePDF(w io.Writer, d Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(d.UploadedAt)
	pdf.SetModificationDate(d.UploadedAt)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetTitle(d.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(d.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("File: "+d.Filename), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Upload: "+d.UploadID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Uploaded at: "+d.UploadedAt.Format(timeFmt), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Summary")
	for _, f := range d.Figures {
		pdf.CellFormat(70, 6, f.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, f.Value, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Type distribution")
	if len(d.Distribution) == 0 {
		pdf.CellFormat(0, 6, "No complete rows.", "", 1, "L", false, 0, "")
	} else {
		for _, e := range d.Distribution {
			pdf.CellFormat(70, 6, tr(e.Label), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, strconv.Itoa(e.Count), "1", 1, "R", false, 0, "")
		}
		png, err := distributionChart(d.Distribution)
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		opt := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(chartImage, opt, bytes.NewReader(png))
		pdf.Ln(2)
		pdf.ImageOptions(chartImage, pdf.GetX(), pdf.GetY(), 160, 80, true, opt, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Rows")
	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range rowColumns {
		pdf.CellFormat(c.width, 6, c.header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range d.Rows {
		status := "complete"
		if !r.Complete {
			status = "INCOMPLETE"
		}
		cells := []string{strconv.Itoa(r.Position), r.Name, r.Type, r.Flowrate, r.Pressure, r.Temperature, status}
		for i, c := range rowColumns {
			pdf.CellFormat(c.width, 6, fit(pdf, tr, cells[i], c.width), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func section(pdf *fpdf.Fpdf, name string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

// fit translates s for the core fonts, shortening it with a trailing "..."
// until it fits into width. Truncation happens on the UTF-8 text, before
// translation, so multi-byte characters are never split.
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	limit := width - 2
	if out := tr(s); pdf.GetStringWidth(out) <= limit {
		return out
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"...")) > limit {
		r = r[:len(r)-1]
	}
	return tr(string(r) + "...")
}
