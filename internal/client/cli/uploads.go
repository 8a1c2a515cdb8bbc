package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dmitrijs2005/equipview/internal/equipment"
	"github.com/dmitrijs2005/equipview/internal/filex"
)

const timeLayout = "2006-01-02 15:04:05"

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("upload <path>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	res, err := a.api.Upload(ctx, args[0], data)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %s as %s\n", res.Filename, res.UploadID)
	a.printSummary(res.Summary)
	for _, w := range res.Warnings {
		fmt.Fprintf(a.out, "Warning: row %d is missing %v\n", w.Position, w.Missing)
	}
	return nil
}

func (a *App) History(ctx context.Context) error {
	list, err := a.api.History(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No uploads yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tUPLOADED")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Filename, m.UploadedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

// Show prints the summary and every row. Incomplete rows are flagged with
// the same predicate the server uses to exclude them from the summary.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("show <id>")
	}
	d, err := a.api.Data(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s), uploaded %s\n", d.Upload.Filename, d.Upload.ID, d.Upload.UploadedAt.Local().Format(timeLayout))
	a.printSummary(d.Summary)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tFLOWRATE\tPRESSURE\tTEMPERATURE\tSTATUS")
	for _, r := range d.Rows {
		status := "ok"
		if !r.Complete() {
			status = fmt.Sprintf("INCOMPLETE %v", r.MissingFields())
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Position,
			equipment.Text(r.Name, "-"), equipment.Text(r.Type, "-"),
			equipment.Number(r.Flowrate, "-"), equipment.Number(r.Pressure, "-"), equipment.Number(r.Temperature, "-"),
			status)
	}
	return tw.Flush()
}

func (a *App) printSummary(s equipment.Summary) {
	fmt.Fprintf(a.out, "Rows: %d, complete: %d, incomplete: %d\n", s.RowCount, s.TotalCount, s.IncompleteCount)
	fmt.Fprintf(a.out, "Averages: flowrate %s, pressure %s, temperature %s\n",
		average(s.Averages.Flowrate), average(s.Averages.Pressure), average(s.Averages.Temperature))
	for _, e := range s.SortedDistribution() {
		fmt.Fprintf(a.out, "  %-20s %d\n", e.Label, e.Count)
	}
}

func average(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *f)
}

func (a *App) Report(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("report <id> [pdf|txt]")
	}
	format := "pdf"
	if len(args) == 2 {
		format = args[1]
	}
	d, err := a.api.Report(ctx, args[0], format)
	if err != nil {
		return err
	}
	return a.save(d.Filename, d.Body)
}

func (a *App) Source(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("source <id>")
	}
	d, err := a.api.Source(ctx, args[0])
	if err != nil {
		return err
	}
	return a.save(d.Filename, d.Body)
}

func (a *App) save(name string, body []byte) error {
	dir, err := filex.EnsureDir(a.config.DownloadDir)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.Base(name))
	n, err := filex.WriteFileAtomic(path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", path, n)
	return nil
}
