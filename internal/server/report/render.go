package report

import (
	"io"

	"github.com/dmitrijs2005/equipview/internal/server/models"
)

// Render writes the report of u in format f.
func Render(w io.Writer, u *models.Upload, f Format) error {
	d := Build(u)
	if f == FormatText {
		return WriteText(w, d)
	}
	return WritePDF(w, d)
}
