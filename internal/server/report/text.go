package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteText renders d as plain text with markdown-style tables.
func WriteText(w io.Writer, d Document) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", d.Title)
	fmt.Fprintf(&b, "File: %s\n", d.Filename)
	fmt.Fprintf(&b, "Upload: %s\n", d.UploadID)
	fmt.Fprintf(&b, "Uploaded at: %s\n\n", d.UploadedAt.Format(timeFmt))

	b.WriteString("[SUMMARY]\n")
	for _, f := range d.Figures {
		fmt.Fprintf(&b, "- %s: %s\n", f.Label, f.Value)
	}

	b.WriteString("\n[TYPE DISTRIBUTION]\n")
	if len(d.Distribution) == 0 {
		b.WriteString("(no complete rows)\n")
	}
	for _, e := range d.Distribution {
		fmt.Fprintf(&b, "- %s: %d\n", safe(e.Label), e.Count)
	}

	b.WriteString("\n[ROWS]\n")
	b.WriteString("| # | Equipment Name | Type | Flowrate | Pressure | Temperature | Status |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range d.Rows {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			r.Position, safe(r.Name), safe(r.Type), r.Flowrate, r.Pressure, r.Temperature, r.Status())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func safe(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
